package postprocess

import (
	"sort"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
)

// pixelEps is the tolerance, in pixels, for treating a sample as sitting on
// the calibration pulse's baseline ordinate.
const pixelEps = 5

const (
	calStateIni = iota
	calStateMid
	calStateEnd
)

// segmentCalibration splits each raw signal into its chart-range portion
// and its calibration-pulse portion, walking inward from whichever end the
// pulse is printed on until the pulse's INI/MID/END square-wave pattern
// breaks symmetry. The scan is one index shorter when the pulse sits at the
// right edge: it covers indices -1 down to -(limit-1), so the column at
// -limit is never examined. The baseline ordinate of each row is taken from
// its last point in both directions.
func segmentCalibration(rawSignals [][]geom.Point, rpAtRight bool) ([][]geom.Point, [][2]int, error) {
	limit := len(rawSignals[0])
	for _, s := range rawSignals {
		if len(s) < limit {
			limit = len(s)
		}
	}

	firstPixels := make([]int, len(rawSignals))
	for i, s := range rawSignals {
		firstPixels[i] = s[len(s)-1].Y
	}

	var direction []int
	if rpAtRight {
		for k := 1; k <= limit-1; k++ {
			direction = append(direction, -k)
		}
	} else {
		for k := 0; k < limit; k++ {
			direction = append(direction, k)
		}
	}

	pulsePos := calStateIni
	iniCount := 0
	cut := 0
	cutFound := false

	for _, i := range direction {
		yCoords := make([]int, len(rawSignals))
		for row, s := range rawSignals {
			idx := i
			if idx < 0 {
				idx += len(s)
			}
			yCoords[row] = s[idx].Y - firstPixels[row]
		}
		sort.Ints(yCoords)

		atV0 := false
		for _, y := range yCoords {
			if absInt(y) <= pixelEps {
				atV0 = true
				break
			}
		}

		breakSymmetry := pulsePos == calStateEnd && (!atV0 || iniCount <= 0)
		if breakSymmetry {
			cut = i
			cutFound = true
			break
		}

		switch {
		case pulsePos == calStateIni:
			if atV0 {
				iniCount++
			} else {
				pulsePos = calStateMid
			}
		case pulsePos == calStateMid && atV0:
			pulsePos = calStateEnd
			iniCount--
		case pulsePos == calStateEnd:
			iniCount--
		}
	}
	if !cutFound {
		return nil, nil, ecg.NewDigitizationError("", ecg.ErrCalibration, "calibration pulse boundary not found")
	}

	signals := make([][]geom.Point, len(rawSignals))
	refPulses := make([][2]int, len(rawSignals))
	for i, rs := range rawSignals {
		var pulseSeg []geom.Point
		if rpAtRight {
			signals[i] = sliceHead(rs, cut+1)
			pulseSeg = sliceTail(rs, cut+1)
		} else {
			signals[i] = sliceTail(rs, cut)
			pulseSeg = sliceHead(rs, cut+1)
		}
		if len(pulseSeg) == 0 {
			return nil, nil, ecg.NewDigitizationError("", ecg.ErrCalibration, "empty calibration pulse segment")
		}

		ys := make([]int, len(pulseSeg))
		for j, p := range pulseSeg {
			ys[j] = p.Y
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		volt0 := firstPixels[i]
		volt1 := ys[len(ys)-1]
		if volt0 == volt1 {
			return nil, nil, ecg.NewDigitizationError("", ecg.ErrCalibration, "reference pulses have not been detected correctly")
		}
		refPulses[i] = [2]int{volt0, volt1}
	}
	return signals, refPulses, nil
}

// sliceHead returns rs[0:stop], where a negative stop is counted back from
// the end of rs, clamped to rs's bounds.
func sliceHead(rs []geom.Point, stop int) []geom.Point {
	if stop < 0 {
		stop += len(rs)
	}
	if stop < 0 {
		stop = 0
	}
	if stop > len(rs) {
		stop = len(rs)
	}
	return rs[:stop]
}

// sliceTail returns rs[start:], where a negative start is counted back from
// the end of rs, clamped to rs's bounds.
func sliceTail(rs []geom.Point, start int) []geom.Point {
	if start < 0 {
		start += len(rs)
	}
	if start < 0 {
		start = 0
	}
	if start > len(rs) {
		start = len(rs)
	}
	return rs[start:]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
