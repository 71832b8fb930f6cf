package extract

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/imaging"
)

func TestCeilMean(t *testing.T) {
	cases := []struct {
		cluster []int
		want    int
	}{
		{[]int{4, 4}, 4},
		{[]int{3, 8}, 6},
		{[]int{10}, 10},
	}
	for _, c := range cases {
		if got := ceilMean(c.cluster); got != c.want {
			t.Errorf("ceilMean(%v) = %d, want %d", c.cluster, got, c.want)
		}
	}
}

func TestGapBetweenTouchingClusters(t *testing.T) {
	if g := gapBetween([]int{0, 1, 2}, []int{2, 3}); g != 0 {
		t.Errorf("overlapping clusters gap = %d, want 0", g)
	}
	if g := gapBetween([]int{0, 1}, []int{5, 6}); g != 3 {
		t.Errorf("gap = %d, want 3", g)
	}
}

func TestLocalMaximaFindsPlateauMidpoint(t *testing.T) {
	values := []float64{0, 1, 3, 3, 3, 1, 0}
	peaks := localMaxima(values)
	if len(peaks) != 1 || peaks[0] != 3 {
		t.Errorf("localMaxima(%v) = %v, want [3]", values, peaks)
	}
}

func TestFindPeaksSuppressesNearbyLowerPeak(t *testing.T) {
	values := []float64{0, 5, 0, 6, 0, 2, 0}
	peaks := findPeaks(values, 3)
	if len(peaks) != 1 || peaks[0] != 3 {
		t.Errorf("findPeaks(%v, 3) = %v, want [3]", values, peaks)
	}
}

func newBinaryColumnImage(t *testing.T, w, h int, ink func(row, col int) bool) imaging.Image {
	t.Helper()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	img := imaging.FromMat(mat, imaging.Gray)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if ink(row, col) {
				img.SetGrayAt(row, col, 0)
			} else {
				img.SetGrayAt(row, col, 255)
			}
		}
	}
	return img
}

func TestExtractSignalsFollowsStraightLine(t *testing.T) {
	const w, h = 60, 40
	img := newBinaryColumnImage(t, w, h, func(row, col int) bool {
		return row == 20
	})
	defer img.Close()

	signals, err := ExtractSignals(img, 1)
	if err != nil {
		t.Fatalf("ExtractSignals: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	for _, p := range signals[0] {
		if p.Y != 20 {
			t.Errorf("point at col %d has y=%d, want 20", p.X, p.Y)
		}
	}
}
