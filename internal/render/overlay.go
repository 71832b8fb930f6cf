package render

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// LeadColors is the BGR palette the overlay cycles through, one color per
// lead in display order.
var LeadColors = [12][3]uint8{
	{0, 0, 255},
	{0, 255, 0},
	{255, 0, 0},
	{0, 200, 255},
	{255, 255, 0},
	{255, 0, 255},
	{0, 0, 125},
	{0, 125, 0},
	{125, 0, 0},
	{0, 100, 125},
	{125, 125, 0},
	{125, 0, 125},
}

// calibrationDashSpace is the pixel period of the calibration pulse's
// dotted boundary lines.
const calibrationDashSpace = 20

// RenderTrace returns a BGR copy of chart with the calibration pulse
// boundaries and every lead's recovered signal painted over it. signals
// holds one polyline per row of the chart (as recovered by signal
// extraction, before resampling to voltage), refPulses holds each row's
// [volt0, volt1] pixel ordinates.
func RenderTrace(chart imaging.Image, signals [][]geom.Point, refPulses [][2]int, cfg ecg.Configuration) imaging.Image {
	trace := chart.ToBGR()
	clip := rect.Rect{LLx: 0, LLy: 0, URx: float64(trace.Width()), URy: float64(trace.Height())}
	r := NewRasterizer(clip)

	for _, pulse := range refPulses {
		volt0, volt1 := pulse[0], pulse[1]
		drawDashedLine(r, trace, volt0, [3]uint8{0, 0, 0})
		drawDashedLine(r, trace, volt1, [3]uint8{0, 0, 0})
	}

	order := cfg.Order()
	for i, lead := range order {
		rhythmIdx, isRhythm := cfg.IsRhythm(lead)
		row := i % cfg.Layout.Rows
		col := i / cfg.Layout.Rows
		if isRhythm {
			row = rhythmIdx + cfg.Layout.Rows
			col = 0
		}
		if row >= len(signals) {
			continue
		}
		signal := signals[row]

		divisor := cfg.Layout.Cols
		if isRhythm {
			divisor = 1
		}
		obsNum := len(signal) / max(divisor, 1)
		start := col * obsNum
		end := start + obsNum
		if end > len(signal) {
			end = len(signal)
		}
		if start >= end {
			continue
		}

		color := LeadColors[i%len(LeadColors)]
		drawPolyline(r, trace, signal[start:end], 2, color)
	}

	return trace
}

// drawDashedLine strokes a full-width horizontal dashed line at row y, using
// the rasterizer's dash pattern rather than hand-spaced segments.
func drawDashedLine(r *Rasterizer, img imaging.Image, y int, color [3]uint8) {
	r.Width = 1
	r.Cap = graphics.LineCapButt
	r.Join = graphics.LineJoinMiter
	r.MiterLimit = 10
	r.Dash = []float64{calibrationDashSpace / 2, calibrationDashSpace / 2}
	r.DashPhase = 0

	points := []vec.Vec2{{X: 0, Y: float64(y)}, {X: float64(img.Width()), Y: float64(y)}}
	r.Stroke(points, func(row, xMin int, coverage []float32) {
		blendRow(img, row, xMin, coverage, color)
	})
}

// drawPolyline strokes an open polyline of the given width and color into
// img, anti-aliased by the coverage rasterizer.
func drawPolyline(r *Rasterizer, img imaging.Image, pts []geom.Point, width float64, color [3]uint8) {
	if len(pts) < 2 {
		return
	}
	r.Width = width
	r.Cap = graphics.LineCapRound
	r.Join = graphics.LineJoinRound
	r.MiterLimit = 10
	r.Dash = nil

	points := make([]vec.Vec2, len(pts))
	for i, p := range pts {
		points[i] = vec.Vec2{X: float64(p.X), Y: float64(p.Y)}
	}
	r.Stroke(points, func(row, xMin int, coverage []float32) {
		blendRow(img, row, xMin, coverage, color)
	})
}

// blendRow alpha-composites color over one emitted coverage row.
func blendRow(img imaging.Image, row, xMin int, coverage []float32, color [3]uint8) {
	for i, c := range coverage {
		if c <= 0 {
			continue
		}
		blendPixel(img, row, xMin+i, color, c)
	}
}

// blendPixel alpha-composites color over img's existing pixel at (y, x)
// using coverage as the alpha value.
func blendPixel(img imaging.Image, y, x int, color [3]uint8, coverage float32) {
	if coverage >= 1 {
		img.SetChannelAt(y, x, color)
		return
	}
	dst := img.ChannelAt(y, x)
	var out [3]uint8
	for i := range out {
		blended := float32(color[i])*coverage + float32(dst[i])*(1-coverage)
		out[i] = uint8(blended + 0.5)
	}
	img.SetChannelAt(y, x, out)
}
