package postprocess

import (
	"errors"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// calibrationTail appends a right-hand calibration pulse to a ramp of raw
// pixel ordinates: three columns at the baseline (volt0), three columns at
// the pulse's low plateau (volt1), then three columns back at the
// baseline, the INI/MID/END pattern segmentCalibration scans for.
func calibrationTail(volt0, volt1 int) []int {
	return []int{volt0, volt0, volt0, volt1, volt1, volt1, volt0, volt0, volt0}
}

// rampRow builds one row's raw polyline: a 32-column linear ramp (the
// recovered chart trace) followed by a right-side calibration pulse
// oscillating between volt0 and volt1.
func rampRow(volt0, volt1 int) []geom.Point {
	const chartLen = 32
	points := make([]geom.Point, 0, chartLen+9)
	for col := 0; col < chartLen; col++ {
		points = append(points, geom.Point{X: col, Y: volt0 - col})
	}
	for i, y := range calibrationTail(volt0, volt1) {
		points = append(points, geom.Point{X: chartLen + i, Y: y})
	}
	return points
}

func blankChart(t *testing.T, w, h int) imaging.Image {
	t.Helper()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			mat.SetUCharAt3(row, col, 0, 255)
			mat.SetUCharAt3(row, col, 1, 255)
			mat.SetUCharAt3(row, col, 2, 255)
		}
	}
	return imaging.FromMat(mat, imaging.BGR)
}

// TestPostprocessRecoversKnownRamp checks the round-trip property: a signal
// whose pixel ordinates are a known linear ramp against a known calibration
// pulse recovers the expected millivolt ramp, within a small RMS error
// budget per lead, after calibration segmentation and per-lead slicing.
func TestPostprocessRecoversKnownRamp(t *testing.T) {
	const volt0, volt1 = 100, 80
	scale := 1.0 / float64(volt0-volt1)

	raw := [][]geom.Point{
		rampRow(volt0, volt1),
		rampRow(volt0, volt1),
		rampRow(volt0, volt1),
	}

	chart := blankChart(t, 41, 150)
	defer chart.Close()

	cfg := ecg.Configuration{Layout: ecg.Layout{Rows: 3, Cols: 4}, RPAtRight: true}

	table, trace, err := Postprocess(chart, raw, cfg)
	if err != nil {
		t.Fatalf("Postprocess: %v", err)
	}
	defer trace.Close()

	// Lead I sits at row 0, column 0: the first quarter of row 0's ramp.
	wantI := make([]float64, 8)
	for col := 0; col < 8; col++ {
		wantI[col] = float64(col) * scale
	}
	assertRMSBelow(t, table.Column(ecg.I)[:8], wantI, 1e-9)

	// Lead V4 sits at row 0, column 3: the last quarter of row 0's ramp,
	// written at table rows 24..31.
	wantV4 := make([]float64, 8)
	for col := 0; col < 8; col++ {
		wantV4[col] = float64(24+col) * scale
	}
	assertRMSBelow(t, table.Column(ecg.V4)[24:32], wantV4, 1e-9)
}

func assertRMSBelow(t *testing.T, got, want []float64, budget float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d samples, want %d", len(got), len(want))
	}
	var sumSq float64
	for i := range got {
		d := got[i] - want[i]
		sumSq += d * d
	}
	rms := math.Sqrt(sumSq / float64(len(got)))
	if rms > budget {
		t.Errorf("RMS error %.6f exceeds budget %.6f\ngot:  %v\nwant: %v", rms, budget, got, want)
	}
}

// TestSegmentCalibrationRejectsCollapsedPulse checks that a calibration
// pulse with no pixel separation between its two plateaus is reported as
// ecg.ErrCalibration rather than producing an infinite or NaN scale factor.
func TestSegmentCalibrationRejectsCollapsedPulse(t *testing.T) {
	raw := [][]geom.Point{rampRow(100, 100)}
	_, _, err := segmentCalibration(raw, true)
	if err == nil {
		t.Fatal("segmentCalibration with a collapsed pulse returned nil error")
	}
	if !errors.Is(err, ecg.ErrCalibration) {
		t.Errorf("error = %v, want ecg.ErrCalibration", err)
	}
}

// TestVectorizeInterpolationOverrideFixesLength checks that a non-nil
// Interpolation forces every lead to exactly that many observations
// regardless of the chart's native ramp length.
func TestVectorizeInterpolationOverrideFixesLength(t *testing.T) {
	n := 100
	cfg := ecg.Configuration{Layout: ecg.Layout{Rows: 1, Cols: 1}, RPAtRight: true, Interpolation: &n}

	signals := [][]geom.Point{rampRow(100, 80)[:32]}
	refPulses := [][2]int{{100, 80}}

	table, err := vectorize(signals, refPulses, cfg)
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}
	if table.Rows() != n {
		t.Errorf("table.Rows() = %d, want %d", table.Rows(), n)
	}
}
