// Package preprocess locates the chart region of a scanned ECG page and
// binarizes it, removing the printed grid so only ink survives: chart
// localization by largest bounding contour, then gridline removal by HSV
// masking and Otsu thresholding.
package preprocess

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// borderWidth is the number of rows/columns inspected at each edge of the
// binarized chart for stray black borders left by the scan or a misfit
// crop.
const borderWidth = 10

// borderBlackFraction is the minimum fraction of black pixels in a border
// row or column for it to be erased to white.
const borderBlackFraction = 0.95

// gapBridgeFraction caps the pixel gap, as a fraction of chart width, that
// gets bridged between two black pixels on the topmost and bottommost ink
// rows, reconnecting traces that ran off one grid panel and resumed in an
// adjacent one.
const gapBridgeFraction = 0.02

// Preprocess crops page to its chart rectangle and returns a binarized GRAY
// image (ink = 0, paper = 255) of that crop, along with the rectangle
// itself in page coordinates. The caller owns both the input page and the
// returned Image.
func Preprocess(page imaging.Image) (imaging.Image, geom.Rectangle, error) {
	rect, err := locateChart(page)
	if err != nil {
		return imaging.Image{}, geom.Rectangle{}, err
	}

	cropped := page.Crop(rect)
	defer cropped.Close()

	binarized := removeGridlines(cropped)
	return binarized, rect, nil
}

// locateChart finds the bounding rectangle of the largest external contour
// in page, via a Canny edge map, Suzuki contour tracing and approxPolyDP
// simplification of each contour.
func locateChart(page imaging.Image) (geom.Rectangle, error) {
	bgr := page.ToBGR()
	defer bgr.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(bgr.Mat(), &edges, 50, 200)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	if contours.Size() == 0 {
		return geom.Rectangle{}, ecg.NewDigitizationError("", ecg.ErrImageFormat, "no contours found while locating chart")
	}

	var best image.Rectangle
	bestArea := -1
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		epsilon := 0.01 * gocv.ArcLength(contour, true)
		poly := gocv.ApproxPolyDP(contour, epsilon, true)
		r := gocv.BoundingRect(poly)
		poly.Close()
		if area := r.Dx() * r.Dy(); area > bestArea {
			bestArea = area
			best = r
		}
	}

	return geom.NewRectangle(best.Min.X, best.Min.Y, best.Dx(), best.Dy()), nil
}

// removeGridlines strips the printed grid from chart, leaving a GRAY image
// with ink at 0 and paper at 255.
func removeGridlines(chart imaging.Image) imaging.Image {
	hsv := chart.ToHSV()
	defer hsv.Close()

	mask := hsv.InRange([3]uint8{0, 0, 168}, [3]uint8{255, 255, 255})
	threshold := otsuThreshold(mask)

	binary := mask.Threshold(threshold)
	mask.Close()

	outlined := outlineBorders(binary)
	binary.Close()
	return outlined
}

// otsuThreshold computes Otsu's threshold over img's 256-bin histogram,
// following the between-class variance formula from Otsu's original paper
// directly, rather than relying on gocv's built-in Otsu threshold flag.
func otsuThreshold(img imaging.Image) uint8 {
	const levels = 256

	var hist [levels]int
	w, h := img.Width(), img.Height()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			hist[img.GrayAt(row, col)]++
		}
	}

	n := float64(w * h)
	var p [levels]float64
	for i, count := range hist {
		p[i] = float64(count) / n
	}

	omega := make([]float64, levels+1)
	mu := make([]float64, levels+1)
	for k := 1; k <= levels; k++ {
		omega[k] = omega[k-1] + p[k-1]
		mu[k] = mu[k-1] + float64(k)*p[k-1]
	}
	muT := mu[levels]

	bestK := 0
	bestVar := -1.0
	for k := 0; k < levels; k++ {
		w0 := omega[k]
		if w0 == 0 || w0 == 1 {
			continue
		}
		diff := muT*w0 - mu[k]
		sigmaB := (diff * diff) / (w0 * (1 - w0))
		if sigmaB > bestVar {
			bestVar = sigmaB
			bestK = k
		}
	}
	return uint8(bestK)
}

// outlineBorders erases thick black scan borders and bridges small
// horizontal gaps in the topmost and bottommost ink rows.
func outlineBorders(img imaging.Image) imaging.Image {
	out := img.Clone()
	w, h := out.Width(), out.Height()
	maxDist := int(gapBridgeFraction * float64(w))

	borderRows := make([]int, 0, 2*borderWidth)
	for r := 0; r < borderWidth && r < h; r++ {
		borderRows = append(borderRows, r)
	}
	for r := h - borderWidth; r < h; r++ {
		if r >= 0 && r >= borderWidth {
			borderRows = append(borderRows, r)
		}
	}
	for _, row := range borderRows {
		black := 0
		for col := 0; col < w; col++ {
			if out.GrayAt(row, col) == 0 {
				black++
			}
		}
		if float64(black)/float64(w) >= borderBlackFraction {
			for col := 0; col < w; col++ {
				out.SetGrayAt(row, col, 255)
			}
		}
	}

	borderCols := make([]int, 0, 2*borderWidth)
	for c := 0; c < borderWidth && c < w; c++ {
		borderCols = append(borderCols, c)
	}
	for c := w - borderWidth; c < w; c++ {
		if c >= 0 && c >= borderWidth {
			borderCols = append(borderCols, c)
		}
	}
	for _, col := range borderCols {
		black := 0
		for row := 0; row < h; row++ {
			if out.GrayAt(row, col) == 0 {
				black++
			}
		}
		if float64(black)/float64(h) >= borderBlackFraction {
			for row := 0; row < h; row++ {
				out.SetGrayAt(row, col, 255)
			}
		}
	}

	top, bottom := -1, -1
	for row := 0; row < h; row++ {
		if rowHasInk(out, row, w) {
			if top == -1 {
				top = row
			}
			bottom = row
		}
	}
	if top == -1 {
		return out
	}
	bridgeRowGaps(out, top, w, maxDist)
	if bottom != top {
		bridgeRowGaps(out, bottom, w, maxDist)
	}
	return out
}

func rowHasInk(img imaging.Image, row, width int) bool {
	for col := 0; col < width; col++ {
		if img.GrayAt(row, col) == 0 {
			return true
		}
	}
	return false
}

func bridgeRowGaps(img imaging.Image, row, width, maxDist int) {
	var points []int
	for col := 0; col < width; col++ {
		if img.GrayAt(row, col) == 0 {
			points = append(points, col)
		}
	}
	for i := 0; i+1 < len(points); i++ {
		p1, p2 := points[i], points[i+1]
		if d := int(math.Abs(float64(p1 - p2))); d <= maxDist {
			lo, hi := p1, p2
			if lo > hi {
				lo, hi = hi, lo
			}
			for c := lo; c < hi; c++ {
				img.SetGrayAt(row, c, 0)
			}
		}
	}
}
