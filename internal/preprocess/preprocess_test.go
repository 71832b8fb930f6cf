package preprocess

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/imaging"
)

func newGrayImage(t *testing.T, w, h int, fill func(row, col int) uint8) imaging.Image {
	t.Helper()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	img := imaging.FromMat(mat, imaging.Gray)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			img.SetGrayAt(row, col, fill(row, col))
		}
	}
	return img
}

func TestOtsuThresholdSeparatesBimodalHistogram(t *testing.T) {
	img := newGrayImage(t, 20, 20, func(row, col int) uint8 {
		if col < 10 {
			return 10
		}
		return 240
	})
	defer img.Close()

	k := otsuThreshold(img)
	if k < 10 || k > 239 {
		t.Errorf("otsuThreshold() = %d, want a cut point between the two clusters", k)
	}
}

func TestOutlineBordersErasesThickBlackBorder(t *testing.T) {
	img := newGrayImage(t, 50, 50, func(row, col int) uint8 {
		if row < 10 {
			return 0
		}
		return 255
	})
	defer img.Close()

	out := outlineBorders(img)
	defer out.Close()

	for col := 0; col < 50; col++ {
		if v := out.GrayAt(0, col); v != 255 {
			t.Fatalf("row 0 col %d = %d, want 255 (border erased)", col, v)
		}
	}
}

func TestBridgeRowGapsFillsSmallGap(t *testing.T) {
	img := newGrayImage(t, 30, 5, func(row, col int) uint8 {
		if row == 2 && (col == 4 || col == 6) {
			return 0
		}
		return 255
	})
	defer img.Close()

	bridgeRowGaps(img, 2, 30, 3)
	if v := img.GrayAt(2, 5); v != 0 {
		t.Errorf("gap pixel between two ink columns = %d, want 0 (bridged)", v)
	}
}
