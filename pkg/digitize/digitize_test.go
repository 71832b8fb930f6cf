package digitize

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

func TestAttachPathFillsEmptyPath(t *testing.T) {
	err := ecg.NewDigitizationError("", ecg.ErrRoiCount, "not enough peaks")
	got := attachPath(err, "scan1.png")

	var de *ecg.DigitizationError
	if !errors.As(got, &de) {
		t.Fatalf("attachPath returned %v, want a *ecg.DigitizationError", got)
	}
	if de.Path != "scan1.png" {
		t.Errorf("Path = %q, want %q", de.Path, "scan1.png")
	}
}

func TestAttachPathLeavesNonDigitizationErrorUnchanged(t *testing.T) {
	plain := errors.New("boom")
	if got := attachPath(plain, "scan1.png"); got != plain {
		t.Errorf("attachPath(%v) = %v, want the same error unchanged", plain, got)
	}
}

func TestAttachPathDoesNotOverwriteExistingPath(t *testing.T) {
	err := ecg.NewDigitizationError("original.png", ecg.ErrCalibration, "collapsed pulse")
	got := attachPath(err, "other.png")

	var de *ecg.DigitizationError
	errors.As(got, &de)
	if de.Path != "original.png" {
		t.Errorf("Path = %q, want the original path preserved", de.Path)
	}
}

func solidBGR(w, h int, b, g, r uint8) imaging.Image {
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			mat.SetUCharAt3(row, col, 0, b)
			mat.SetUCharAt3(row, col, 1, g)
			mat.SetUCharAt3(row, col, 2, r)
		}
	}
	return imaging.FromMat(mat, imaging.BGR)
}

func TestCompositeTracePaintsOnlyInsideRect(t *testing.T) {
	page := solidBGR(40, 30, 255, 255, 255) // white page
	defer page.Close()
	overlay := solidBGR(10, 10, 0, 0, 0) // black overlay patch
	defer overlay.Close()

	rect := geom.NewRectangle(5, 5, 10, 10)
	outPath := filepath.Join(t.TempDir(), "trace.png")

	if err := compositeTrace(page, overlay, rect, outPath); err != nil {
		t.Fatalf("compositeTrace: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("output dims %v, want 40x30", img.Bounds())
	}

	insideR, insideG, insideB, _ := img.At(8, 8).RGBA()
	if insideR != 0 || insideG != 0 || insideB != 0 {
		t.Errorf("pixel (8,8) inside rect = (%d,%d,%d), want black", insideR>>8, insideG>>8, insideB>>8)
	}

	outsideR, _, _, _ := img.At(0, 0).RGBA()
	if outsideR>>8 != 255 {
		t.Errorf("pixel (0,0) outside rect = %d, want 255 (untouched page)", outsideR>>8)
	}
}
