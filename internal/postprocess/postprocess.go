// Package postprocess turns the raw per-row polylines signal extraction
// recovers into a calibrated sample table and a rendered trace overlay:
// segment the calibration pulse out of each row, use it to convert pixels
// to millivolts, slice the panel into per-lead columns, resample to a
// common observation count, then paint the recovered signals back over the
// chart image for inspection.
package postprocess

import (
	"github.com/ecgtrace/digitizer/internal/render"
	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// Postprocess calibrates rawSignals against their printed reference pulses,
// vectorizes them into cfg's lead layout, and renders a trace overlay on
// chart. rawSignals holds one polyline per trace row, in pixel coordinates,
// as recovered by signal extraction, including the calibration pulse at
// whichever end cfg.RPAtRight selects.
func Postprocess(chart imaging.Image, rawSignals [][]geom.Point, cfg ecg.Configuration) (*ecg.SampleTable, imaging.Image, error) {
	signals, refPulses, err := segmentCalibration(rawSignals, cfg.RPAtRight)
	if err != nil {
		return nil, imaging.Image{}, err
	}

	table, err := vectorize(signals, refPulses, cfg)
	if err != nil {
		return nil, imaging.Image{}, err
	}

	trace := render.RenderTrace(chart, signals, refPulses, cfg)
	return table, trace, nil
}
