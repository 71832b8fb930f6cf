package render

import (
	"testing"

	"gocv.io/x/gocv"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

func TestStrokeCoversSegmentInterior(t *testing.T) {
	r := NewRasterizer(rect.Rect{LLx: 0, LLy: 0, URx: 40, URy: 40})
	r.Width = 4
	r.Cap = graphics.LineCapButt
	r.Join = graphics.LineJoinMiter

	covered := make(map[int]bool)
	r.Stroke([]vec.Vec2{{X: 0, Y: 10}, {X: 20, Y: 10}}, func(y, xMin int, coverage []float32) {
		for i, c := range coverage {
			if c > 0.99 {
				covered[y*1000+xMin+i] = true
			}
		}
	})

	if !covered[10*1000+10] {
		t.Errorf("midpoint pixel (10,10) not fully covered by a width-4 stroke centered on y=10")
	}
	if covered[0*1000+10] {
		t.Errorf("pixel 10px above the stroke reported as covered")
	}
}

func TestStrokeRespectsClipBounds(t *testing.T) {
	r := NewRasterizer(rect.Rect{LLx: 0, LLy: 0, URx: 40, URy: 40})
	r.Width = 2
	r.Cap = graphics.LineCapButt

	var emitted bool
	r.Stroke([]vec.Vec2{{X: 100, Y: 100}, {X: 120, Y: 100}}, func(y, xMin int, coverage []float32) {
		emitted = true
	})

	if emitted {
		t.Errorf("Stroke emitted coverage for a segment entirely outside Clip")
	}
}

func TestRenderTracePaintsOverPulseBaseline(t *testing.T) {
	mat := gocv.NewMatWithSize(60, 100, gocv.MatTypeCV8UC3)
	for row := 0; row < 60; row++ {
		for col := 0; col < 100; col++ {
			mat.SetUCharAt3(row, col, 0, 255)
			mat.SetUCharAt3(row, col, 1, 255)
			mat.SetUCharAt3(row, col, 2, 255)
		}
	}
	chart := imaging.FromMat(mat, imaging.BGR)
	defer chart.Close()

	cfg := ecg.Configuration{Layout: ecg.Layout{Rows: 12, Cols: 1}}

	signals := make([][]geom.Point, 12)
	refPulses := make([][2]int, 12)
	for row := range signals {
		y := 5 + row*4
		signals[row] = []geom.Point{{X: 0, Y: y}, {X: 50, Y: y}, {X: 99, Y: y}}
		refPulses[row] = [2]int{y, y + 2}
	}

	trace := RenderTrace(chart, signals, refPulses, cfg)
	defer trace.Close()

	if trace.ColorSpace() != imaging.BGR {
		t.Fatalf("RenderTrace returned color space %v, want BGR", trace.ColorSpace())
	}

	foundInk := false
	for col := 0; col < trace.Width(); col++ {
		if trace.ChannelAt(5, col) != [3]uint8{255, 255, 255} {
			foundInk = true
			break
		}
	}
	if !foundInk {
		t.Errorf("expected the row-0 signal line to paint over some pixel on y=5")
	}
}
