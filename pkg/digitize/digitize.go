// Package digitize wires the preprocess, extract and postprocess stages
// into a single entry point: Digitize reads one scanned ECG page, recovers
// its twelve leads, and writes a sample table, a trace overlay and (if a
// metadata collaborator is supplied) a metadata file.
package digitize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ecgtrace/digitizer/internal/extract"
	"github.com/ecgtrace/digitizer/internal/postprocess"
	"github.com/ecgtrace/digitizer/internal/preprocess"
	"github.com/ecgtrace/digitizer/pkg/ecg"
	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// Digitize runs the full pipeline on the image at srcPath and writes
// <base>.csv, <base>_trace.png and, when meta is non-nil,
// <base>_metadata.txt into outDir, where <base> is srcPath's filename
// without extension. ctx is checked between stages only: the core has no
// internal suspension points, so cancellation only ever stops a
// digitization that has not yet started its next stage.
//
// Failures while loading the image or in a pipeline stage are returned
// before any output file is written; they are *ecg.DigitizationError values,
// except a resampling failure, which is a wrapped plain error. A cancelled
// ctx returns ctx.Err(), and failures creating or writing the output files
// are returned as wrapped plain errors. Outputs are written in
// the order CSV, PNG, metadata; a failure in a later write leaves the files
// already written in place.
func Digitize(ctx context.Context, srcPath, outDir string, cfg ecg.Configuration, meta ecg.MetadataExtractor) error {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	page, err := imaging.Load(srcPath)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := ctx.Err(); err != nil {
		return err
	}

	cropped, rect, err := preprocess.Preprocess(page)
	if err != nil {
		return attachPath(err, srcPath)
	}
	defer cropped.Close()
	slog.Info("ecg: preprocessed chart", "file", srcPath, "rect", rect)

	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := extract.ExtractSignals(cropped, cfg.Rows())
	if err != nil {
		return attachPath(err, srcPath)
	}
	slog.Info("ecg: extracted signals", "file", srcPath, "rows", len(raw))

	if err := ctx.Err(); err != nil {
		return err
	}

	colorChart := page.Crop(rect)
	defer colorChart.Close()

	table, overlay, err := postprocess.Postprocess(colorChart, raw, cfg)
	if err != nil {
		return attachPath(err, srcPath)
	}
	defer overlay.Close()
	slog.Info("ecg: postprocessed", "file", srcPath, "rows", table.Rows())

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ecg: creating output directory %q: %w", outDir, err)
	}

	if err := writeCSV(table, filepath.Join(outDir, base+".csv")); err != nil {
		return fmt.Errorf("ecg: writing sample table: %w", err)
	}

	tracePath := filepath.Join(outDir, base+"_trace.png")
	if err := compositeTrace(page, overlay, rect, tracePath); err != nil {
		return fmt.Errorf("ecg: writing trace overlay: %w", err)
	}

	if meta != nil {
		if err := writeMetadata(ctx, meta, page, rect, filepath.Join(outDir, base+"_metadata.txt")); err != nil {
			return attachPath(err, srcPath)
		}
	}

	return nil
}

// attachPath fills in the file that failed on a *ecg.DigitizationError that
// was raised without one (every pipeline stage below Digitize has no
// knowledge of the source path), and passes any other error through
// unchanged.
func attachPath(err error, path string) error {
	var de *ecg.DigitizationError
	if errors.As(err, &de) && de.Path == "" {
		de.Path = path
	}
	return err
}

func writeCSV(table *ecg.SampleTable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := table.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// compositeTrace writes an 8-bit PNG identical to page everywhere except
// inside rect, where overlay is painted in. It uses golang.org/x/image/draw
// rather than gocv's Mat region copy so the compositing step, the boundary
// between the gocv-backed pipeline and the final file, is expressed in
// terms of the standard library's image.Image, the type the CLI and any
// future downstream consumer would expect.
func compositeTrace(page, overlay imaging.Image, rect geom.Rectangle, path string) error {
	canvas := image.NewNRGBA(image.Rect(0, 0, page.Width(), page.Height()))
	draw.Draw(canvas, canvas.Bounds(), page.ToGoImage(), image.Point{}, draw.Src)

	dst := image.Rect(rect.TopLeft.X, rect.TopLeft.Y, rect.BottomRight.X, rect.BottomRight.Y)
	draw.Draw(canvas, dst, overlay.ToGoImage(), image.Point{}, draw.Src)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, canvas); err != nil {
		return err
	}
	return f.Close()
}

// writeMetadata invokes the caller-supplied OCR collaborator on the decoded
// page with its chart rectangle blanked out and writes its result to path,
// matching MetadataExtractor's documented contract that frame covers only
// the page area outside the chart. Any failure from the collaborator is
// reported as ecg.ErrExternalTool, the error kind reserved for unavailable
// out-of-scope tools.
func writeMetadata(ctx context.Context, meta ecg.MetadataExtractor, page imaging.Image, rect geom.Rectangle, path string) error {
	blanked := page.Clone()
	defer blanked.Close()
	blanked.FillWhite(rect)

	frame := blanked.Mat().ToBytes()

	text, err := meta.ExtractMetadata(ctx, frame, blanked.Width(), blanked.Height())
	if err != nil {
		return ecg.NewDigitizationError("", ecg.ErrExternalTool, err.Error())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return err
	}
	return f.Close()
}
