package ecg

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure kinds the pipeline reports. Callers
// distinguish them with errors.Is, not string matching.
var (
	// ErrImageFormat indicates the input raster could not be decoded, or
	// that chart localization found no contours.
	ErrImageFormat = errors.New("ecg: image format error")

	// ErrRoiCount indicates fewer than N region-of-interest peaks were
	// detectable in the chart.
	ErrRoiCount = errors.New("ecg: roi count error")

	// ErrCalibration indicates a row's calibration pulse collapsed to a
	// single pixel ordinate, making voltage scaling singular.
	ErrCalibration = errors.New("ecg: calibration error")

	// ErrExternalTool indicates an out-of-scope collaborator (e.g. an OCR
	// engine) was unavailable.
	ErrExternalTool = errors.New("ecg: external tool error")
)

// DigitizationError wraps one of the sentinel errors above together with
// the input file that failed, so a caller can print a single diagnostic
// line ("<file>: <kind>: <detail>") from one value.
type DigitizationError struct {
	Path   string
	Detail string
	Kind   error
}

func (e *DigitizationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Detail)
}

func (e *DigitizationError) Unwrap() error {
	return e.Kind
}

// NewDigitizationError builds a DigitizationError for the given file and
// underlying sentinel kind.
func NewDigitizationError(path string, kind error, detail string) *DigitizationError {
	return &DigitizationError{Path: path, Detail: detail, Kind: kind}
}
