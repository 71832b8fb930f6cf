// seehuhn.de/go/raster - a 2D rendering library
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package render

import (
	"math"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// strokeSegment represents a line segment in user coordinates.
type strokeSegment struct {
	A, B vec.Vec2
	T    vec.Vec2 // unit tangent (A->B direction)
	N    vec.Vec2 // unit normal (90 deg CCW from T)
}

// Stroke renders points as a single open stroked polyline using Width, Cap,
// Join, MiterLimit, Dash and DashPhase. The emit callback receives coverage
// row-by-row; its slice argument is valid only during the call.
//
// Unlike the general path-based stroker this is adapted from, Stroke takes
// an already-flattened polyline directly: every trace this module strokes
// (a recovered signal or a calibration-pulse dash) is already a sequence of
// pixel points with no curve data to flatten, and every one of them is an
// open path — this pipeline never fills or outlines a closed region.
func (r *Rasterizer) Stroke(points []vec.Vec2, emit func(y, xMin int, coverage []float32)) {
	r.flattenPolyline(points)
	if len(r.segs) == 0 && !r.haveDegenerate {
		return
	}

	r.stroke = r.stroke[:0]
	r.strokeOffsets = r.strokeOffsets[:0]

	if r.haveDegenerate {
		if r.Cap == graphics.LineCapRound {
			startOffset := len(r.stroke)
			r.addArc(r.degeneratePoint, r.Width/2, vec.Vec2{X: 1, Y: 0}, 2*math.Pi, true)
			r.strokeOffsets = append(r.strokeOffsets, startOffset)
		}
		r.fillStrokeOutlines(emit)
		return
	}

	if len(r.Dash) > 0 {
		r.strokeDashedSegments()
	} else {
		r.strokeOpenPath()
	}

	r.fillStrokeOutlines(emit)
}

// flattenPolyline populates the flattening buffers from a single already
// discrete polyline, the direct-polyline counterpart of the general
// path-walking flattenPath this is adapted from.
func (r *Rasterizer) flattenPolyline(points []vec.Vec2) {
	r.segs = r.segs[:0]
	r.haveDegenerate = false

	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		r.haveDegenerate = true
		r.degeneratePoint = points[0]
		return
	}

	for i := 0; i+1 < len(points); i++ {
		r.addStrokeSegment(points[i], points[i+1])
	}
	if len(r.segs) == 0 {
		r.haveDegenerate = true
		r.degeneratePoint = points[0]
	}
}

// strokeDashedSegments applies the dash pattern to the flattened polyline
// and strokes each resulting on-segment run as its own open subpath.
func (r *Rasterizer) strokeDashedSegments() {
	r.applyDashPattern()

	numDashes := len(r.dashedSegsOffsets)
	for i := range numDashes {
		segs := r.getDashedSegments(i)

		if len(segs) == 1 && segs[0].A == segs[0].B {
			if r.Cap == graphics.LineCapRound {
				startOffset := len(r.stroke)
				r.addArc(segs[0].A, r.Width/2, vec.Vec2{X: 1, Y: 0}, 2*math.Pi, true)
				r.strokeOffsets = append(r.strokeOffsets, startOffset)
			}
			continue
		}

		startOffset := len(r.stroke)
		r.strokeOpenSubpath(segs)
		if len(r.stroke)-startOffset >= 3 {
			r.strokeOffsets = append(r.strokeOffsets, startOffset)
		} else {
			r.stroke = r.stroke[:startOffset]
		}
	}
}

func (r *Rasterizer) getDashedSegments(i int) []strokeSegment {
	start := r.dashedSegsOffsets[i]
	var end int
	if i+1 < len(r.dashedSegsOffsets) {
		end = r.dashedSegsOffsets[i+1]
	} else {
		end = len(r.dashedSegs)
	}
	return r.dashedSegs[start:end]
}

// addStrokeSegment adds a line segment to the flattening buffer.
func (r *Rasterizer) addStrokeSegment(a, b vec.Vec2) {
	d := b.Sub(a)
	length := d.Length()
	if length < zeroLengthThreshold {
		return
	}
	t := d.Mul(1 / length)
	n := vec.Vec2{X: -t.Y, Y: t.X}
	r.segs = append(r.segs, strokeSegment{A: a, B: b, T: t, N: n})
}

// strokeOpenPath builds the stroke outline for the whole flattened polyline.
func (r *Rasterizer) strokeOpenPath() {
	startOffset := len(r.stroke)
	r.strokeOpenSubpath(r.segs)
	if len(r.stroke)-startOffset >= 3 {
		r.strokeOffsets = append(r.strokeOffsets, startOffset)
	} else {
		r.stroke = r.stroke[:startOffset]
	}
}

// strokeOpenSubpath builds the stroke outline for one run of segments into
// r.stroke, as a closed polygon: forward pass on the +N side with caps at
// each end, then backward pass on the -N side.
func (r *Rasterizer) strokeOpenSubpath(segs []strokeSegment) {
	if len(segs) == 0 {
		return
	}

	d := r.Width / 2

	first := &segs[0]
	last := &segs[len(segs)-1]

	r.addCap(first.A, first.T.Mul(-1), d)

	skipNextA := false
	for i := range len(segs) {
		seg := &segs[i]
		if !skipNextA {
			r.stroke = append(r.stroke, seg.A.Add(seg.N.Mul(d)))
		}
		skipNextA = false
		if i < len(segs)-1 {
			next := &segs[i+1]
			sinTheta := seg.T.X*next.T.Y - seg.T.Y*next.T.X
			if math.Abs(sinTheta) < collinearityThreshold {
				r.stroke = append(r.stroke, seg.B.Add(seg.N.Mul(d)))
			} else if sinTheta > 0 {
				skipNextA = r.addInnerIntersectionOrOffsets(seg.B, seg.T, next.T, seg.N, next.N, d, true)
			} else {
				r.stroke = append(r.stroke, seg.B.Add(seg.N.Mul(d)))
				r.addJoin(seg.B, seg.T, next.T, d, true)
			}
		} else {
			r.stroke = append(r.stroke, seg.B.Add(seg.N.Mul(d)))
		}
	}

	r.addCap(last.B, last.T, d)

	skipNextB := false
	for i := len(segs) - 1; i >= 0; i-- {
		seg := &segs[i]
		if !skipNextB {
			r.stroke = append(r.stroke, seg.B.Sub(seg.N.Mul(d)))
		}
		skipNextB = false
		if i > 0 {
			prev := &segs[i-1]
			sinTheta := prev.T.X*seg.T.Y - prev.T.Y*seg.T.X
			if math.Abs(sinTheta) < collinearityThreshold {
				r.stroke = append(r.stroke, seg.A.Sub(seg.N.Mul(d)))
			} else if sinTheta > 0 {
				r.stroke = append(r.stroke, seg.A.Sub(seg.N.Mul(d)))
				r.addJoin(seg.A, prev.T, seg.T, d, false)
			} else {
				skipNextB = r.addInnerIntersectionOrOffsets(seg.A, prev.T, seg.T, prev.N, seg.N, d, false)
			}
		} else {
			r.stroke = append(r.stroke, seg.A.Sub(seg.N.Mul(d)))
		}
	}
}

// addCap adds a line cap to the stroke outline at point P. T is the
// outward tangent direction (away from the line). d is half the stroke
// width. Only the two cap styles this domain draws with are supported:
// Butt (calibration dashes) and Round (lead polylines).
func (r *Rasterizer) addCap(P, T vec.Vec2, d float64) {
	switch r.Cap {
	case graphics.LineCapButt:
		// Butt cap: caller already connected the left/right offset points.

	case graphics.LineCapRound:
		N := vec.Vec2{X: -T.Y, Y: T.X}
		r.addArc(P, d, N, -math.Pi, true)
	}
}

// computeInnerIntersection returns the intersection point of the two inner
// offset lines at a corner, or ok=false for nearly collinear segments.
func computeInnerIntersection(P, T1, T2 vec.Vec2, d float64, isPositiveNormalSide bool) (vec.Vec2, bool) {
	cosTheta := T1.Dot(T2)
	if cosTheta > 1-1e-9 {
		return vec.Vec2{}, false
	}

	halfAngle := math.Sqrt((1 + cosTheta) / 2)
	if halfAngle < 1e-9 {
		return vec.Vec2{}, false
	}

	N1 := vec.Vec2{X: -T1.Y, Y: T1.X}
	N2 := vec.Vec2{X: -T2.Y, Y: T2.X}

	innerDir := N1.Add(N2)
	if !isPositiveNormalSide {
		innerDir = innerDir.Mul(-1)
	}

	innerDirLen := innerDir.Length()
	if innerDirLen < 1e-9 {
		return vec.Vec2{}, false
	}
	innerDir = innerDir.Mul(1 / innerDirLen)

	return P.Add(innerDir.Mul(d / halfAngle)), true
}

func (r *Rasterizer) addInnerIntersectionOrOffsets(P, T1, T2, N1, N2 vec.Vec2, d float64, isPositiveNormalSide bool) bool {
	if innerPt, ok := computeInnerIntersection(P, T1, T2, d, isPositiveNormalSide); ok {
		r.stroke = append(r.stroke, innerPt)
		return true
	}
	if isPositiveNormalSide {
		r.stroke = append(r.stroke, P.Add(N1.Mul(d)))
		r.stroke = append(r.stroke, P.Add(N2.Mul(d)))
	} else {
		r.stroke = append(r.stroke, P.Sub(N1.Mul(d)))
		r.stroke = append(r.stroke, P.Sub(N2.Mul(d)))
	}
	return false
}

// addJoin adds a line join at point P where tangent changes from T1 to T2.
// Only the two join styles this domain draws with are supported: Miter
// (the calibration dashes) and Round (lead polylines). A miter exceeding
// MiterLimit falls back to a plain bevel (no extra vertex), the standard
// miter/bevel relationship.
func (r *Rasterizer) addJoin(P, T1, T2 vec.Vec2, d float64, isPositiveNormalSide bool) {
	cosTheta := T1.Dot(T2)
	sinTheta := T1.X*T2.Y - T1.Y*T2.X

	if sinTheta > -collinearityThreshold && sinTheta < collinearityThreshold {
		return
	}

	if cosTheta < cuspCosineThreshold {
		r.addCap(P, T1, d)
		r.addCap(P, T2.Mul(-1), d)
		return
	}

	switch r.Join {
	case graphics.LineJoinMiter:
		sinHalf := math.Sqrt((1 + cosTheta) / 2)
		const miterEpsilon = 1e-10
		if sinHalf > 0 && 1/sinHalf <= r.MiterLimit+miterEpsilon {
			N1 := vec.Vec2{X: -T1.Y, Y: T1.X}
			N2 := vec.Vec2{X: -T2.Y, Y: T2.X}

			var bisector vec.Vec2
			if isPositiveNormalSide {
				bisector = N1.Add(N2)
			} else {
				bisector = N1.Add(N2).Mul(-1)
			}
			bisectorLen := bisector.Length()
			if bisectorLen > zeroLengthThreshold {
				bisector = bisector.Mul(1 / bisectorLen)
				miterDist := d / sinHalf
				miterPt := P.Add(bisector.Mul(miterDist))
				r.stroke = append(r.stroke, miterPt)
			}
			return
		}
		// Miter limit exceeded: fall back to a bevel, i.e. no extra vertex.

	case graphics.LineJoinRound:
		angle := math.Acos(max(-1, min(1, cosTheta)))
		if isPositiveNormalSide {
			N1 := vec.Vec2{X: -T1.Y, Y: T1.X}
			if sinTheta > 0 {
				r.addArc(P, d, N1, angle, false)
			} else {
				r.addArc(P, d, N1, -angle, false)
			}
		} else {
			N2 := vec.Vec2{X: T2.Y, Y: -T2.X}
			if sinTheta > 0 {
				r.addArc(P, d, N2, -angle, false)
			} else {
				r.addArc(P, d, N2, angle, false)
			}
		}
	}
}

// addArc adds arc vertices to the stroke outline. center is the arc
// center, radius the arc radius, startDir the unit vector from center to
// the arc's start, sweep the sweep angle in radians (positive is CCW).
// includeStart indicates whether to include the start point.
func (r *Rasterizer) addArc(center vec.Vec2, radius float64, startDir vec.Vec2, sweep float64, includeStart bool) {
	devRadius := r.transformLinear(vec.Vec2{X: radius, Y: 0}).Length()
	devRadius2 := r.transformLinear(vec.Vec2{X: 0, Y: radius}).Length()
	devRadius = max(devRadius, devRadius2)

	if devRadius < r.Flatness {
		if includeStart {
			r.stroke = append(r.stroke, center.Add(startDir.Mul(radius)))
		}
		cos, sin := math.Cos(sweep), math.Sin(sweep)
		endDir := vec.Vec2{X: startDir.X*cos - startDir.Y*sin, Y: startDir.X*sin + startDir.Y*cos}
		r.stroke = append(r.stroke, center.Add(endDir.Mul(radius)))
		return
	}

	absSweep := math.Abs(sweep)
	angleStep := 2 * math.Acos(1-r.Flatness/devRadius)
	if angleStep <= 0 || math.IsNaN(angleStep) {
		angleStep = math.Pi / 4
	}
	n := int(math.Ceil(absSweep / angleStep))
	n = max(n, 1)

	dt := sweep / float64(n)
	startI := 0
	if !includeStart {
		startI = 1
	}
	for i := startI; i <= n; i++ {
		angle := float64(i) * dt
		cos, sin := math.Cos(angle), math.Sin(angle)
		dir := vec.Vec2{X: startDir.X*cos - startDir.Y*sin, Y: startDir.X*sin + startDir.Y*cos}
		r.stroke = append(r.stroke, center.Add(dir.Mul(radius)))
	}
}

// applyDashPattern applies the dash pattern to the single flattened
// polyline. Results are stored in r.dashedSegs and r.dashedSegsOffsets, one
// run per on-segment of the pattern.
func (r *Rasterizer) applyDashPattern() {
	r.dashedSegs = r.dashedSegs[:0]
	r.dashedSegsOffsets = r.dashedSegsOffsets[:0]

	dash := r.Dash
	dashLen := len(dash)

	patternLen := 0.0
	for _, d := range dash {
		patternLen += d
	}
	if dashLen%2 == 1 {
		patternLen *= 2
	}
	if patternLen <= 0 {
		return
	}

	phase := r.DashPhase
	phase = math.Mod(phase, patternLen)
	if phase < 0 {
		phase += patternLen
	}

	segments := r.segs
	if len(segments) == 0 {
		return
	}

	dashIdx := 0
	dist := phase
	for dist >= dash[dashIdx%dashLen] && dash[dashIdx%dashLen] > 0 {
		dist -= dash[dashIdx%dashLen]
		dashIdx++
	}
	remaining := dash[dashIdx%dashLen] - dist
	isOn := dashIdx%2 == 0

	if isOn && remaining == 0 && len(segments) > 0 {
		seg := segments[0]
		r.dashedSegsOffsets = append(r.dashedSegsOffsets, len(r.dashedSegs))
		r.dashedSegs = append(r.dashedSegs, strokeSegment{A: seg.A, B: seg.A, T: seg.T, N: seg.N})
		dashIdx++
		remaining = dash[dashIdx%dashLen]
		isOn = dashIdx%2 == 0
	}

	dashStartIdx := len(r.dashedSegs)
	segIdx := 0
	segDist := 0.0

	for segIdx < len(segments) {
		seg := segments[segIdx]
		segLen := seg.B.Sub(seg.A).Length()
		segRemaining := segLen - segDist

		if remaining >= segRemaining {
			if isOn {
				if segDist > 0 {
					t := segDist / segLen
					startPt := seg.A.Add(seg.B.Sub(seg.A).Mul(t))
					r.dashedSegs = append(r.dashedSegs, strokeSegment{A: startPt, B: seg.B, T: seg.T, N: seg.N})
				} else {
					r.dashedSegs = append(r.dashedSegs, seg)
				}
			}
			remaining -= segRemaining
			segIdx++
			segDist = 0
		} else {
			endDist := segDist + remaining
			t := endDist / segLen
			splitPt := seg.A.Add(seg.B.Sub(seg.A).Mul(t))

			if isOn {
				startT := segDist / segLen
				startPt := seg.A.Add(seg.B.Sub(seg.A).Mul(startT))
				d := splitPt.Sub(startPt)
				dLen := d.Length()
				if dLen > zeroLengthThreshold {
					tVec := d.Mul(1 / dLen)
					nVec := vec.Vec2{X: -tVec.Y, Y: tVec.X}
					r.dashedSegs = append(r.dashedSegs, strokeSegment{A: startPt, B: splitPt, T: tVec, N: nVec})
				} else if len(r.dashedSegs) == dashStartIdx {
					r.dashedSegs = append(r.dashedSegs, strokeSegment{A: startPt, B: startPt, T: seg.T, N: seg.N})
				}

				if len(r.dashedSegs) > dashStartIdx {
					r.dashedSegsOffsets = append(r.dashedSegsOffsets, dashStartIdx)
					dashStartIdx = len(r.dashedSegs)
				}
			}

			segDist = endDist
			dashIdx++
			remaining = dash[dashIdx%dashLen]
			isOn = dashIdx%2 == 0
		}
	}

	if len(r.dashedSegs) > dashStartIdx {
		r.dashedSegsOffsets = append(r.dashedSegsOffsets, dashStartIdx)
	}
}

// fillStrokeOutlines fills all collected stroke polygons as a compound
// path, using the nonzero winding rule so overlapping regions (e.g. where
// a dash's round cap overlaps the next dash) are painted once.
func (r *Rasterizer) fillStrokeOutlines(emit func(y, xMin int, coverage []float32)) {
	if len(r.strokeOffsets) == 0 {
		return
	}

	xMin, xMax, yMin, yMax, ok := r.collectStrokeEdges()
	if !ok {
		return
	}

	width := xMax - xMin
	height := yMax - yMin

	if width*height < r.smallPathThreshold {
		r.fillSmallPath(xMin, xMax, yMin, yMax, emit)
	} else {
		r.fillLargePath(xMin, xMax, yMin, yMax, emit)
	}
}

// collectStrokeEdges builds the edge list directly from the stroke
// polygons collected in r.stroke.
func (r *Rasterizer) collectStrokeEdges() (xMin, xMax, yMin, yMax int, ok bool) {
	r.edges = r.edges[:0]
	r.edgeBBoxFirst = true

	for i, start := range r.strokeOffsets {
		var end int
		if i+1 < len(r.strokeOffsets) {
			end = r.strokeOffsets[i+1]
		} else {
			end = len(r.stroke)
		}
		poly := r.stroke[start:end]
		if len(poly) < 2 {
			continue
		}

		for j := 1; j < len(poly); j++ {
			r.addEdge(poly[j-1], poly[j])
		}
		r.addEdge(poly[len(poly)-1], poly[0])
	}

	if len(r.edges) == 0 {
		return 0, 0, 0, 0, false
	}

	clipXMin := int(r.Clip.LLx)
	clipXMax := int(r.Clip.URx)
	clipYMin := int(r.Clip.LLy)
	clipYMax := int(r.Clip.URy)

	xMin = max(int(math.Floor(r.edgeDevXMin)), clipXMin)
	xMax = min(int(math.Floor(r.edgeDevXMax))+1, clipXMax)
	yMin = max(int(math.Floor(r.edgeDevYMin)), clipYMin)
	yMax = min(int(math.Floor(r.edgeDevYMax))+1, clipYMax)

	if xMin >= xMax || yMin >= yMax {
		return 0, 0, 0, 0, false
	}

	return xMin, xMax, yMin, yMax, true
}
