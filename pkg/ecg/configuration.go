package ecg

// Layout is the grid of the main 12-lead panel: Rows x Cols.
// Standard values are (3,4), (6,2) and (12,1).
type Layout struct {
	Rows, Cols int
}

// Configuration is fixed for the lifetime of one digitization.
type Configuration struct {
	// Layout is the grid of the main 12-lead panel.
	Layout Layout

	// Rhythm lists additional full-width rhythm-strip leads, top to bottom.
	// Must be empty when Layout.Cols == 1.
	Rhythm []Lead

	// RPAtRight is true iff the calibration pulse is printed at the
	// right-hand end of each row.
	RPAtRight bool

	// Cabrera selects the Cabrera lead ordering and inverts aVR.
	Cabrera bool

	// Interpolation, if non-nil, resamples every lead to exactly this many
	// observations.
	Interpolation *int
}

// Rows is the number of trace rows to recover: the main panel's rows plus
// one per rhythm strip.
func (c Configuration) Rows() int {
	return c.Layout.Rows + len(c.Rhythm)
}

// Order returns the lead order this configuration prints in: Cabrera when
// Configuration.Cabrera is set, Standard otherwise. Column order in output
// tables is always Standard regardless of this choice.
func (c Configuration) Order() [12]Lead {
	if c.Cabrera {
		return Cabrera
	}
	return Standard
}

// IsRhythm reports whether lead is one of the configured rhythm strips, and
// if so, its index within Rhythm.
func (c Configuration) IsRhythm(lead Lead) (index int, ok bool) {
	for i, l := range c.Rhythm {
		if l == lead {
			return i, true
		}
	}
	return 0, false
}
