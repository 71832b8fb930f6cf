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

// Package render paints the trace overlay (calibration pulse dashes and
// per-lead polylines) onto a BGR copy of the cropped chart image. It adapts
// the coverage-accumulation scanline rasterizer: the front end that walks a
// generic Bézier path is replaced by one that walks the already-discrete
// polylines signal extraction and calibration segmentation produce, since
// nothing in this pipeline ever has curved trace data; the edge
// accumulation and fill machinery downstream of it are unchanged, and the
// stroke-outline construction keeps only open paths with butt or round caps.
package render

import (
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// edge represents a line segment in device coordinates.
type edge struct {
	x0, y0, x1, y1 float64
	dxdy           float64
}

// Rasterizer converts stroked polylines to pixel coverage values—the
// fraction of each pixel's area covered—ranging from 0 (outside) to 1
// (inside). Create one instance and reuse it for multiple strokes.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	// CTM transforms from user space to device space. Must be non-singular.
	CTM matrix.Matrix

	// Clip bounds output to this device-coordinate rectangle.
	Clip rect.Rect

	// Flatness controls arc approximation accuracy in device pixels.
	Flatness float64

	// Width sets stroke thickness in user-space units.
	Width float64

	// Cap sets the style for stroke endpoints.
	Cap graphics.LineCapStyle

	// Join sets the style for stroke corners.
	Join graphics.LineJoinStyle

	// MiterLimit caps miter join length. Must be at least 1.0.
	MiterLimit float64

	// Dash specifies alternating on/off lengths in user-space units. Nil
	// means solid.
	Dash []float64

	// DashPhase offsets into the dash pattern in user-space units.
	DashPhase float64

	smallPathThreshold int

	cover         []float32
	area          []float32
	edges         []edge
	activeIdx     []int
	rowHasEdges   []bool
	stroke        []vec.Vec2
	strokeOffsets []int

	segs            []strokeSegment
	haveDegenerate  bool
	degeneratePoint vec.Vec2

	edgeBBoxFirst bool
	edgeDevXMin   float64
	edgeDevXMax   float64
	edgeDevYMin   float64
	edgeDevYMax   float64

	dashedSegs        []strokeSegment
	dashedSegsOffsets []int
}

// NewRasterizer returns a Rasterizer with the given clip rectangle and
// default stroke parameters.
func NewRasterizer(clip rect.Rect) *Rasterizer {
	return &Rasterizer{
		CTM:        matrix.Identity,
		Clip:       clip,
		Flatness:   defaultFlatness,
		Width:      1.0,
		Cap:        graphics.LineCapButt,
		Join:       graphics.LineJoinMiter,
		MiterLimit: defaultMiterLimit,

		smallPathThreshold: smallPathThreshold,
	}
}

// transformLinear applies only the 2x2 linear part of CTM to a vector, for
// CTM-aware tolerance checks where translation is irrelevant.
func (r *Rasterizer) transformLinear(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: r.CTM[0]*v.X + r.CTM[2]*v.Y,
		Y: r.CTM[1]*v.X + r.CTM[3]*v.Y,
	}
}

// addEdge records a device-space segment and grows the running edge bbox.
// Horizontal edges contribute no coverage and are skipped.
func (r *Rasterizer) addEdge(a, b vec.Vec2) {
	if a.Y == b.Y {
		return
	}
	e := edge{x0: a.X, y0: a.Y, x1: b.X, y1: b.Y}
	e.dxdy = (b.X - a.X) / (b.Y - a.Y)
	r.edges = append(r.edges, e)

	lo, hi := a.X, b.X
	if lo > hi {
		lo, hi = hi, lo
	}
	yLo, yHi := a.Y, b.Y
	if yLo > yHi {
		yLo, yHi = yHi, yLo
	}
	if r.edgeBBoxFirst {
		r.edgeDevXMin, r.edgeDevXMax = lo, hi
		r.edgeDevYMin, r.edgeDevYMax = yLo, yHi
		r.edgeBBoxFirst = false
	} else {
		r.edgeDevXMin = min(r.edgeDevXMin, lo)
		r.edgeDevXMax = max(r.edgeDevXMax, hi)
		r.edgeDevYMin = min(r.edgeDevYMin, yLo)
		r.edgeDevYMax = max(r.edgeDevYMax, yHi)
	}
}

// accumulateEdge adds e's contribution to scanline y into cover/area, whose
// index 0 corresponds to pixel column bboxXMin.
func (r *Rasterizer) accumulateEdge(e *edge, y int, cover, area []float32, bboxXMin, bboxXMax int) {
	yTop := max(float64(y), min(e.y0, e.y1))
	yBot := min(float64(y+1), max(e.y0, e.y1))
	if yBot <= yTop {
		return
	}

	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xAtYTop := e.x0 + e.dxdy*(yTop-e.y0)
	xAtYBot := e.x0 + e.dxdy*(yBot-e.y0)
	xLeft, xRight := xAtYTop, xAtYBot
	if xLeft > xRight {
		xLeft, xRight = xRight, xLeft
	}
	pixLeft := int(math.Floor(xLeft))
	pixRight := int(math.Floor(xRight))

	if pixRight < bboxXMin {
		coverVal := sign * float32(yBot-yTop)
		cover[0] += coverVal
		area[0] += coverVal
		return
	}
	if pixLeft >= bboxXMax {
		return
	}

	if pixLeft == pixRight {
		r.accumulateEdgeInColumn(e, yTop, yBot, sign, pixLeft, cover, area, bboxXMin, bboxXMax)
		return
	}

	dydx := 1 / e.dxdy
	for pix := pixLeft; pix <= pixRight; pix++ {
		yAtPixLeft := e.y0 + dydx*(float64(pix)-e.x0)
		yAtPixRight := e.y0 + dydx*(float64(pix+1)-e.x0)
		segYMin := max(min(yAtPixLeft, yAtPixRight), yTop)
		segYMax := min(max(yAtPixLeft, yAtPixRight), yBot)
		segDy := segYMax - segYMin
		if segDy <= 0 {
			continue
		}
		coverVal := sign * float32(segDy)
		yMid := (segYMin + segYMax) / 2
		xMid := e.x0 + e.dxdy*(yMid-e.y0)
		xFrac := xMid - float64(pix)
		areaVal := coverVal * float32(1-xFrac)

		if pix < bboxXMin {
			cover[0] += coverVal
			area[0] += coverVal
		} else if pix < bboxXMax {
			idx := pix - bboxXMin
			cover[idx] += coverVal
			area[idx] += areaVal
		}
	}
}

func (r *Rasterizer) accumulateEdgeInColumn(e *edge, yTop, yBot float64, sign float32, pix int, cover, area []float32, bboxXMin, bboxXMax int) {
	coverVal := sign * float32(yBot-yTop)
	if pix < bboxXMin {
		cover[0] += coverVal
		area[0] += coverVal
		return
	}
	if pix >= bboxXMax {
		return
	}
	yMid := (yTop + yBot) / 2
	xMid := e.x0 + e.dxdy*(yMid-e.y0)
	xFrac := xMid - float64(pix)
	areaVal := coverVal * float32(1-xFrac)
	idx := pix - bboxXMin
	cover[idx] += coverVal
	area[idx] += areaVal
}

// fillSmallPath rasterizes using 2D buffers. Used for bounding boxes under
// smallPathThreshold pixels.
func (r *Rasterizer) fillSmallPath(xMin, xMax, yMin, yMax int, emit func(y, xMin int, coverage []float32)) {
	width := xMax - xMin
	height := yMax - yMin

	size := width * height
	r.cover = slices.Grow(r.cover[:0], size)[:size]
	r.area = slices.Grow(r.area[:0], size)[:size]
	clear(r.cover)
	clear(r.area)

	r.rowHasEdges = slices.Grow(r.rowHasEdges[:0], height)[:height]
	clear(r.rowHasEdges)

	for i := range r.edges {
		e := &r.edges[i]
		var edgeYMin, edgeYMax int
		if e.y0 < e.y1 {
			edgeYMin, edgeYMax = int(math.Floor(e.y0)), int(math.Floor(e.y1))+1
		} else {
			edgeYMin, edgeYMax = int(math.Floor(e.y1)), int(math.Floor(e.y0))+1
		}
		edgeYMin = max(edgeYMin, yMin)
		edgeYMax = min(edgeYMax, yMax)
		for y := edgeYMin; y < edgeYMax; y++ {
			row := y - yMin
			off := row * width
			r.accumulateEdge(e, y, r.cover[off:off+width], r.area[off:off+width], xMin, xMax)
			r.rowHasEdges[row] = true
		}
	}

	for row := range height {
		if !r.rowHasEdges[row] {
			continue
		}
		y := yMin + row
		off := row * width
		coverage := r.cover[off : off+width]
		integrateScanlineNonZero(coverage, r.area[off:off+width])
		if trimmed, offset := trimZeros(coverage); trimmed != nil {
			emit(y, xMin+offset, trimmed)
		}
	}
}

// fillLargePath rasterizes using 1D buffers and an active edge list. Used
// for bounding boxes at or above smallPathThreshold pixels.
func (r *Rasterizer) fillLargePath(xMin, xMax, yMin, yMax int, emit func(y, xMin int, coverage []float32)) {
	width := xMax - xMin

	r.cover = slices.Grow(r.cover[:0], width)[:width]
	r.area = slices.Grow(r.area[:0], width)[:width]

	slices.SortFunc(r.edges, func(a, b edge) int {
		aYMin := min(a.y0, a.y1)
		bYMin := min(b.y0, b.y1)
		switch {
		case aYMin < bYMin:
			return -1
		case aYMin > bYMin:
			return 1
		default:
			return 0
		}
	})

	r.activeIdx = r.activeIdx[:0]
	nextEdge := 0

	for y := yMin; y < yMax; y++ {
		yf := float64(y)
		yfNext := float64(y + 1)

		for nextEdge < len(r.edges) {
			e := &r.edges[nextEdge]
			edgeYMin := min(e.y0, e.y1)
			if edgeYMin >= yfNext {
				break
			}
			r.activeIdx = append(r.activeIdx, nextEdge)
			nextEdge++
		}

		if len(r.activeIdx) == 0 {
			continue
		}

		clear(r.cover)
		clear(r.area)

		xMinBound := width
		xMaxBound := -1

		for i := 0; i < len(r.activeIdx); {
			e := &r.edges[r.activeIdx[i]]

			edgeYMax := max(e.y0, e.y1)
			if edgeYMax <= yf {
				r.activeIdx[i] = r.activeIdx[len(r.activeIdx)-1]
				r.activeIdx = r.activeIdx[:len(r.activeIdx)-1]
				continue
			}

			r.accumulateEdge(e, y, r.cover, r.area, xMin, xMax)

			yTop := max(yf, min(e.y0, e.y1))
			yBot := min(yfNext, max(e.y0, e.y1))
			if yBot > yTop {
				yMid := (yTop + yBot) / 2
				xMidF := e.x0 + e.dxdy*(yMid-e.y0)
				x := int(math.Floor(xMidF))
				x = max(x, xMin)
				x = min(x, xMax-1)
				xIdx := x - xMin
				if xIdx < xMinBound {
					xMinBound = xIdx
				}
				if xIdx > xMaxBound {
					xMaxBound = xIdx
				}
			}

			i++
		}

		if xMaxBound < 0 {
			continue
		}

		integrateScanlineNonZero(r.cover, r.area)
		if trimmed, offset := trimZeros(r.cover); trimmed != nil {
			emit(y, xMin+offset, trimmed)
		}
	}
}

// integrateScanlineNonZero converts accumulated cover/area into final [0,1]
// coverage values in place, using the nonzero winding rule.
func integrateScanlineNonZero(cover, area []float32) {
	var accum float32
	for i := range cover {
		raw := accum + area[i]
		accum += cover[i]
		cov := raw
		if cov < 0 {
			cov = -cov
		}
		if cov > 1 {
			cov = 1
		}
		cover[i] = cov
	}
}

// trimZeros returns the non-zero portion of coverage and its offset, or
// nil if coverage is entirely zero.
func trimZeros(coverage []float32) (trimmed []float32, offset int) {
	n := len(coverage)
	lo := 0
	for lo < n && coverage[lo] == 0 {
		lo++
	}
	if lo == n {
		return nil, 0
	}
	hi := n - 1
	for hi > lo && coverage[hi] == 0 {
		hi--
	}
	return coverage[lo : hi+1], lo
}

const (
	// defaultFlatness is the default arc flattening tolerance in device
	// pixels.
	defaultFlatness = 0.25

	// defaultMiterLimit is the default miter limit.
	defaultMiterLimit = 10.0

	// smallPathThreshold is the maximum bounding box area (in pixels) for
	// using 2D buffers.
	smallPathThreshold = 65536

	// zeroLengthThreshold is the minimum length for a stroke segment.
	zeroLengthThreshold = 1e-10

	// collinearityThreshold is used to detect nearly collinear segments
	// (|sin(theta)| below this is treated as a straight line).
	collinearityThreshold = 1e-6

	// cuspCosineThreshold is the cosine threshold for detecting cusps
	// (path doubling back on itself).
	cuspCosineThreshold = -0.9999
)
