package postprocess

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
)

// vectorize resamples each segmented signal to a common observation count,
// scales pixel ordinates to voltage against that row's calibration pulse,
// and slices the result into per-lead columns of a SampleTable, using
// gonum's piecewise-linear interpolator to resample each signal.
func vectorize(signals [][]geom.Point, refPulses [][2]int, cfg ecg.Configuration) (*ecg.SampleTable, error) {
	maxLen := 0
	for _, s := range signals {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}

	totalObs := maxLen
	if cfg.Interpolation != nil {
		totalObs = *cfg.Interpolation
	} else if cfg.Layout.Cols > 0 {
		if rem := maxLen % cfg.Layout.Cols; rem != 0 {
			totalObs = maxLen + (cfg.Layout.Cols - rem)
		}
	}

	interpSignals := make([][]float64, len(signals))
	for i, s := range signals {
		resampled, err := resample(s, totalObs)
		if err != nil {
			return nil, fmt.Errorf("ecg: resampling signal %d: %w", i, err)
		}
		interpSignals[i] = resampled
	}

	table := ecg.NewSampleTable(totalObs)
	order := cfg.Order()

	for i, lead := range order {
		rhythmIdx, isRhythm := cfg.IsRhythm(lead)
		var row, col int
		if isRhythm {
			row = rhythmIdx + cfg.Layout.Rows
			col = 0
		} else {
			row = i % cfg.Layout.Rows
			col = i / cfg.Layout.Rows
		}

		volt0, volt1 := refPulses[row][0], refPulses[row][1]
		scale := 1.0 / (float64(volt0) - float64(volt1))

		full := interpSignals[row]
		divisor := cfg.Layout.Cols
		if isRhythm {
			divisor = 1
		}
		obsNum := len(full) / divisor
		start := col * obsNum
		end := start + obsNum
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}

		for k, y := range full[start:end] {
			v := (float64(volt0) - y) * scale
			if cfg.Cabrera && lead == ecg.AVR {
				v = -v
			}
			rowIdx := start + k
			if rowIdx >= table.Rows() {
				break
			}
			table.Set(rowIdx, lead, v)
		}
	}
	return table, nil
}

// resample linearly interpolates signal's y-ordinates, sampled at integer
// x positions 0..len(signal)-1, onto n evenly spaced points spanning the
// same range.
func resample(signal []geom.Point, n int) ([]float64, error) {
	xs := make([]float64, len(signal))
	ys := make([]float64, len(signal))
	for i, p := range signal {
		xs[i] = float64(i)
		ys[i] = float64(p.Y)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	if n == 1 {
		out[0] = pl.Predict(0)
		return out, nil
	}
	step := float64(len(signal)-1) / float64(n-1)
	for k := 0; k < n; k++ {
		out[k] = pl.Predict(float64(k) * step)
	}
	return out, nil
}
