// Command ecgdigitize is the CLI front end for the digitization core. It
// accepts one or more input images and digitizes them independently with a
// fixed-size worker pool: each worker runs one digitization to completion
// at a time, and a failure in one input does not stop the rest of the
// batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ecgtrace/digitizer/pkg/digitize"
	"github.com/ecgtrace/digitizer/pkg/ecg"
)

func main() {
	var (
		in            string
		out           string
		rows          int
		cols          int
		rhythm        string
		rpRight       bool
		cabrera       bool
		interpolation int
		workers       int
	)

	flag.StringVar(&in, "in", "", "comma-separated list of input image paths")
	flag.StringVar(&out, "out", ".", "output directory")
	flag.IntVar(&rows, "rows", 3, "main panel row count")
	flag.IntVar(&cols, "cols", 4, "main panel column count")
	flag.StringVar(&rhythm, "rhythm", "", "comma-separated rhythm strip lead names, top to bottom")
	flag.BoolVar(&rpRight, "rp-right", true, "calibration pulse printed at the right-hand end of each row")
	flag.BoolVar(&cabrera, "cabrera", false, "use Cabrera lead ordering and invert aVR")
	flag.IntVar(&interpolation, "interpolation", 0, "resample every lead to exactly this many observations (0 disables)")
	flag.IntVar(&workers, "workers", 1, "number of images to digitize concurrently")
	flag.Parse()

	if in == "" {
		fmt.Fprintln(os.Stderr, "ecgdigitize: -in is required")
		os.Exit(2)
	}

	cfg := ecg.Configuration{
		Layout:    ecg.Layout{Rows: rows, Cols: cols},
		RPAtRight: rpRight,
		Cabrera:   cabrera,
	}
	if rhythm != "" {
		leads, err := parseLeads(rhythm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ecgdigitize: -rhythm: %s\n", err)
			os.Exit(2)
		}
		cfg.Rhythm = leads
	}
	if interpolation > 0 {
		cfg.Interpolation = &interpolation
	}

	inputs := strings.Split(in, ",")
	if workers < 1 {
		workers = 1
	}

	slog.Info("ecgdigitize: starting batch", "inputs", len(inputs), "workers", workers)

	var failures int
	var mu sync.Mutex
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, path := range inputs {
		path := strings.TrimSpace(path)
		if path == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := digitize.Digitize(context.Background(), path, out, cfg, nil); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				fmt.Fprintf(os.Stderr, "%s\n", diagnosticLine(path, err))
			} else {
				slog.Info("ecgdigitize: digitized", "file", path)
			}
		}()
	}
	wg.Wait()

	if failures > 0 {
		os.Exit(1)
	}
}

// diagnosticLine renders a single diagnostic line identifying the input
// filename and error kind. A *ecg.DigitizationError already carries its
// own file path, so it is printed as-is; any other error is prefixed with
// the input's base name.
func diagnosticLine(path string, err error) string {
	if de, ok := err.(*ecg.DigitizationError); ok {
		return de.Error()
	}
	return fmt.Sprintf("%s: %s", filepath.Base(path), err)
}

// parseLeads parses a comma-separated list of standard lead names into
// ecg.Lead values, in the order given.
func parseLeads(s string) ([]ecg.Lead, error) {
	names := strings.Split(s, ",")
	leads := make([]ecg.Lead, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		lead, ok := leadByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown lead %q", name)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func leadByName(name string) (ecg.Lead, bool) {
	for _, lead := range ecg.Standard {
		if strings.EqualFold(lead.String(), name) {
			return lead, true
		}
	}
	return 0, false
}

