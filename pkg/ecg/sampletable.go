package ecg

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// SampleTable is a rectangular numeric table with one column per standard
// lead, rows in time order. Unfilled cells carry NaN as the "missing"
// sentinel.
type SampleTable struct {
	rows    int
	columns map[Lead][]float64
}

// NewSampleTable allocates a table of the given row count, with every cell
// in every lead column initialized to missing (NaN).
func NewSampleTable(rows int) *SampleTable {
	t := &SampleTable{rows: rows, columns: make(map[Lead][]float64, len(Standard))}
	for _, lead := range Standard {
		col := make([]float64, rows)
		for i := range col {
			col[i] = math.NaN()
		}
		t.columns[lead] = col
	}
	return t
}

// Rows returns the number of rows in the table.
func (t *SampleTable) Rows() int { return t.rows }

// Set writes value into the cell at (row, lead).
func (t *SampleTable) Set(row int, lead Lead, value float64) {
	t.columns[lead][row] = value
}

// Column returns the (read-only) samples for lead, including any missing
// (NaN) entries.
func (t *SampleTable) Column(lead Lead) []float64 {
	return t.columns[lead]
}

// WriteCSV writes the table as UTF-8 comma-separated values: a header row
// with the 12 lead names in Standard order, one row per sample, missing
// cells as an empty field, voltages rounded to 4 decimal places.
func (t *SampleTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(Standard))
	for i, lead := range Standard {
		header[i] = lead.String()
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ecg: writing csv header: %w", err)
	}

	record := make([]string, len(Standard))
	for row := 0; row < t.rows; row++ {
		for i, lead := range Standard {
			v := t.columns[lead][row]
			if math.IsNaN(v) {
				record[i] = ""
			} else {
				record[i] = strconv.FormatFloat(round4(v), 'f', 4, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("ecg: writing csv row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
