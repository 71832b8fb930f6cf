package ecg

import (
	"strings"
	"testing"
)

func TestSampleTableWriteCSV(t *testing.T) {
	table := NewSampleTable(3)
	table.Set(0, I, 1.23456)
	table.Set(1, I, -0.5)
	// row 2, lead I left missing

	var buf strings.Builder
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 { // header + 3 rows
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}

	header := strings.Split(lines[0], ",")
	if header[0] != "I" || header[3] != "aVR" || header[11] != "V6" {
		t.Errorf("unexpected header: %v", header)
	}

	row0 := strings.Split(lines[1], ",")
	if row0[0] != "1.2346" {
		t.Errorf("row 0 lead I = %q, want 1.2346 (rounded to 4 decimals)", row0[0])
	}

	row2 := strings.Split(lines[3], ",")
	if row2[0] != "" {
		t.Errorf("row 2 lead I = %q, want empty (missing)", row2[0])
	}
}

func TestLeadString(t *testing.T) {
	cases := map[Lead]string{I: "I", AVR: "aVR", V1: "V1", V6: "V6"}
	for lead, want := range cases {
		if got := lead.String(); got != want {
			t.Errorf("Lead(%d).String() = %q, want %q", lead, got, want)
		}
	}
}

func TestConfigurationOrder(t *testing.T) {
	cfg := Configuration{Layout: Layout{Rows: 3, Cols: 4}}
	if order := cfg.Order(); order != Standard {
		t.Errorf("Order() with Cabrera=false = %v, want Standard", order)
	}
	cfg.Cabrera = true
	if order := cfg.Order(); order != Cabrera {
		t.Errorf("Order() with Cabrera=true = %v, want Cabrera", order)
	}
}

func TestConfigurationIsRhythm(t *testing.T) {
	cfg := Configuration{Layout: Layout{Rows: 3, Cols: 4}, Rhythm: []Lead{II}}
	if idx, ok := cfg.IsRhythm(II); !ok || idx != 0 {
		t.Errorf("IsRhythm(II) = (%d, %v), want (0, true)", idx, ok)
	}
	if _, ok := cfg.IsRhythm(V1); ok {
		t.Errorf("IsRhythm(V1) = true, want false")
	}
	if got := cfg.Rows(); got != 4 {
		t.Errorf("Rows() = %d, want 4 (3 panel + 1 rhythm)", got)
	}
}
