package ecg

import "context"

// MetadataExtractor is the seam for an out-of-scope OCR collaborator that
// reads patient/device metadata printed outside the chart area. No
// implementation ships in this module; a nil MetadataExtractor passed to
// digitize.Digitize skips metadata output entirely.
type MetadataExtractor interface {
	// ExtractMetadata reads patient/device metadata printed on frame, the
	// portion of the page outside the chart rectangle.
	ExtractMetadata(ctx context.Context, frame []byte, width, height int) (string, error)
}
