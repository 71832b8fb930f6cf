// Package imaging wraps gocv.Mat behind a color-space-tagged Image value:
// every stage of the pipeline passes an Image around rather than a raw
// matrix, so a caller can never confuse a BGR page scan with the GRAY
// binary mask produced from it.
package imaging

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
)

// Image is a gocv.Mat tagged with the ColorSpace its pixels are encoded in.
// The zero value is not usable; construct with Load or FromMat. Callers own
// the underlying Mat and must call Close when done with it.
type Image struct {
	mat   gocv.Mat
	space ColorSpace
}

// FromMat wraps an existing Mat. It takes ownership of mat: closing the
// returned Image closes mat.
func FromMat(mat gocv.Mat, space ColorSpace) Image {
	return Image{mat: mat, space: space}
}

// Load decodes the image file at path as a BGR color image, the same
// decoding gocv.IMRead performs for cv.imread's default flag.
func Load(path string) (Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return Image{}, ecg.NewDigitizationError(path, ecg.ErrImageFormat, "could not decode image")
	}
	return Image{mat: mat, space: BGR}, nil
}

// Save encodes im to path, converting to BGR first if necessary since
// gocv.IMWrite assumes BGR channel order for color Mats.
func (im Image) Save(path string) error {
	out := im
	if im.space != Gray && im.space != BGR {
		out = im.ToBGR()
		defer out.Close()
	}
	if ok := gocv.IMWrite(path, out.mat); !ok {
		return fmt.Errorf("ecg: writing image %q failed", path)
	}
	return nil
}

// Mat exposes the underlying matrix for packages that need to call gocv
// operations (Canny, FindContours, Threshold, ...) directly. The returned
// Mat remains owned by im; callers must not Close it.
func (im Image) Mat() gocv.Mat { return im.mat }

// ColorSpace reports the channel layout of im's pixels.
func (im Image) ColorSpace() ColorSpace { return im.space }

// Width returns the column count.
func (im Image) Width() int { return im.mat.Cols() }

// Height returns the row count.
func (im Image) Height() int { return im.mat.Rows() }

// Empty reports whether im holds no pixels.
func (im Image) Empty() bool { return im.mat.Empty() }

// Close releases the underlying Mat's native memory.
func (im Image) Close() error { return im.mat.Close() }

// Clone returns an independent deep copy of im.
func (im Image) Clone() Image {
	return Image{mat: im.mat.Clone(), space: im.space}
}

// Crop returns an independent copy of the rectangle r of im, in the same
// color space. r is clipped to im's bounds.
func (im Image) Crop(r geom.Rectangle) Image {
	bounds := image.Rect(0, 0, im.Width(), im.Height())
	region := image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y).Intersect(bounds)
	sub := im.mat.Region(region)
	defer sub.Close()
	return Image{mat: sub.Clone(), space: im.space}
}

// White returns the pixel value that represents "paper" (background) in
// im's color space: 255 for GRAY and BGR/RGB, (0, 0, 255) for HSV.
func (im Image) White() []uint8 {
	switch im.space {
	case Gray:
		return []uint8{255}
	case HSV:
		return []uint8{0, 0, 255}
	default:
		return []uint8{255, 255, 255}
	}
}

// Black returns the pixel value that represents "ink" (foreground) in im's
// color space.
func (im Image) Black() []uint8 {
	switch im.space {
	case Gray:
		return []uint8{0}
	default:
		return []uint8{0, 0, 0}
	}
}

// GrayAt returns the pixel value at (row, col) of a GRAY image.
func (im Image) GrayAt(row, col int) uint8 {
	return im.mat.GetUCharAt(row, col)
}

// SetGrayAt writes the pixel value at (row, col) of a GRAY image.
func (im Image) SetGrayAt(row, col int, v uint8) {
	im.mat.SetUCharAt(row, col, v)
}

// ChannelAt returns the three channel values at (row, col) of a 3-channel
// image (BGR, RGB or HSV).
func (im Image) ChannelAt(row, col int) [3]uint8 {
	v := im.mat.GetVecbAt(row, col)
	return [3]uint8{v[0], v[1], v[2]}
}

// SetChannelAt writes the three channel values at (row, col) of a
// 3-channel image (BGR, RGB or HSV).
func (im Image) SetChannelAt(row, col int, v [3]uint8) {
	im.mat.SetUCharAt3(row, col, 0, v[0])
	im.mat.SetUCharAt3(row, col, 1, v[1])
	im.mat.SetUCharAt3(row, col, 2, v[2])
}

// ToGray converts im to a single-channel grayscale image.
func (im Image) ToGray() Image {
	if im.space == Gray {
		return im.Clone()
	}
	dst := gocv.NewMat()
	switch im.space {
	case BGR:
		gocv.CvtColor(im.mat, &dst, gocv.ColorBGRToGray)
	case RGB:
		gocv.CvtColor(im.mat, &dst, gocv.ColorRGBToGray)
	case HSV:
		// OpenCV has no direct HSV->GRAY conversion code; round-trip
		// through BGR instead.
		bgr := gocv.NewMat()
		gocv.CvtColor(im.mat, &bgr, gocv.ColorHSVToBGR)
		gocv.CvtColor(bgr, &dst, gocv.ColorBGRToGray)
		bgr.Close()
	}
	return Image{mat: dst, space: Gray}
}

// ToBGR converts im to 3-channel BGR.
func (im Image) ToBGR() Image {
	if im.space == BGR {
		return im.Clone()
	}
	dst := gocv.NewMat()
	switch im.space {
	case Gray:
		gocv.CvtColor(im.mat, &dst, gocv.ColorGrayToBGR)
	case RGB:
		gocv.CvtColor(im.mat, &dst, gocv.ColorRGBToBGR)
	case HSV:
		gocv.CvtColor(im.mat, &dst, gocv.ColorHSVToBGR)
	}
	return Image{mat: dst, space: BGR}
}

// ToRGB converts im to 3-channel RGB.
func (im Image) ToRGB() Image {
	if im.space == RGB {
		return im.Clone()
	}
	dst := gocv.NewMat()
	switch im.space {
	case Gray:
		gocv.CvtColor(im.mat, &dst, gocv.ColorGrayToBGR)
		gocv.CvtColor(dst, &dst, gocv.ColorBGRToRGB)
	case BGR:
		gocv.CvtColor(im.mat, &dst, gocv.ColorBGRToRGB)
	case HSV:
		gocv.CvtColor(im.mat, &dst, gocv.ColorHSVToRGB)
	}
	return Image{mat: dst, space: RGB}
}

// ToHSV converts im to 3-channel HSV.
func (im Image) ToHSV() Image {
	if im.space == HSV {
		return im.Clone()
	}
	dst := gocv.NewMat()
	switch im.space {
	case Gray:
		bgr := gocv.NewMat()
		gocv.CvtColor(im.mat, &bgr, gocv.ColorGrayToBGR)
		gocv.CvtColor(bgr, &dst, gocv.ColorBGRToHSV)
		bgr.Close()
	case BGR:
		gocv.CvtColor(im.mat, &dst, gocv.ColorBGRToHSV)
	case RGB:
		gocv.CvtColor(im.mat, &dst, gocv.ColorRGBToHSV)
	}
	return Image{mat: dst, space: HSV}
}

// Threshold applies a fixed binary threshold and returns a GRAY image whose
// pixels are 0 or 255, converting im to grayscale first if necessary.
// Otsu's method itself is computed by the preprocess package rather than
// gocv's built-in Otsu flag, since its exact formula is load-bearing
// behavior, not ambient plumbing.
func (im Image) Threshold(thresh uint8) Image {
	gray := im
	if im.space != Gray {
		gray = im.ToGray()
		defer gray.Close()
	}
	dst := gocv.NewMat()
	gocv.Threshold(gray.mat, &dst, float32(thresh), 255, gocv.ThresholdBinary)
	return Image{mat: dst, space: Gray}
}

// ToGoImage converts im to a standard library image.Image, the boundary
// type pkg/digitize needs to composite the overlay back into the full page
// with golang.org/x/image/draw. Gray images become *image.Gray; every other
// color space is routed through BGR first and becomes *image.NRGBA with
// channels un-swapped to the standard RGB order.
func (im Image) ToGoImage() image.Image {
	w, h := im.Width(), im.Height()
	if im.space == Gray {
		out := image.NewGray(image.Rect(0, 0, w, h))
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				out.SetGray(col, row, color.Gray{Y: im.GrayAt(row, col)})
			}
		}
		return out
	}

	bgr := im
	if im.space != BGR {
		bgr = im.ToBGR()
		defer bgr.Close()
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := bgr.ChannelAt(row, col)
			out.SetNRGBA(col, row, color.NRGBA{R: c[2], G: c[1], B: c[0], A: 255})
		}
	}
	return out
}

// InRange returns a GRAY mask where pixels of im (HSV) within [lower, upper]
// (inclusive, per channel) are 255 and all others are 0.
func (im Image) InRange(lower, upper [3]uint8) Image {
	lb := gocv.NewMatFromScalar(gocv.NewScalar(float64(lower[0]), float64(lower[1]), float64(lower[2]), 0), gocv.MatTypeCV8UC3)
	defer lb.Close()
	ub := gocv.NewMatFromScalar(gocv.NewScalar(float64(upper[0]), float64(upper[1]), float64(upper[2]), 0), gocv.MatTypeCV8UC3)
	defer ub.Close()
	dst := gocv.NewMat()
	gocv.InRange(im.mat, lb, ub, &dst)
	return Image{mat: dst, space: Gray}
}

// FillWhite overwrites every pixel of im within r with White, clipping r to
// im's bounds. It mutates im in place, the same way gocv draws fills
// in-place onto the Mat a caller already owns.
func (im Image) FillWhite(r geom.Rectangle) {
	bounds := image.Rect(0, 0, im.Width(), im.Height())
	region := image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y).Intersect(bounds)
	if region.Empty() {
		return
	}
	gocv.Rectangle(&im.mat, region, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
}
