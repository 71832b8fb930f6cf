package extract

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// roiWindow sizes the window detectROI slides down the chart to estimate
// local ink density: each window covers roiWindow-1 rows (i..i+roiWindow-2)
// and its score is assigned to row i+(roiWindow-1)/2, the window's centre.
const roiWindow = 10

// detectROI locates n trace rows by sliding a window down img, scoring each
// position by the population standard deviation of its pixel values (a row
// straddling a trace has far more contrast than a row of pure grid or pure
// background), then picking the n tallest, well-separated peaks.
func detectROI(img imaging.Image, n int) ([]int, error) {
	h, w := img.Height(), img.Width()
	shift := (roiWindow - 1) / 2
	stds := make([]float64, h)

	window := make([]float64, 0, (roiWindow-1)*w)
	for i := 0; i <= h-roiWindow; i++ {
		window = window[:0]
		for row := i; row < i+roiWindow-1; row++ {
			for col := 0; col < w; col++ {
				window = append(window, float64(img.GrayAt(row, col)))
			}
		}
		stds[i+shift] = stat.PopStdDev(window, nil)
	}

	minDistance := int(float64(h) * 0.1)
	peaks := findPeaks(stds, minDistance)

	sort.SliceStable(peaks, func(i, j int) bool {
		return stds[peaks[i]] > stds[peaks[j]]
	})
	if len(peaks) < n {
		return nil, ecg.NewDigitizationError("", ecg.ErrRoiCount, "the indicated number of rois could not be detected")
	}
	rois := append([]int(nil), peaks[:n]...)
	sort.Ints(rois)
	return rois, nil
}
