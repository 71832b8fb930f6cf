package geom

import "testing"

func TestRectangleDimensions(t *testing.T) {
	r := NewRectangle(10, 20, 100, 50)
	if got := r.Width(); got != 100 {
		t.Errorf("Width() = %d, want 100", got)
	}
	if got := r.Height(); got != 50 {
		t.Errorf("Height() = %d, want 50", got)
	}
	if r.Empty() {
		t.Errorf("Empty() = true for a non-empty rectangle")
	}
}

func TestRectangleEmpty(t *testing.T) {
	cases := []Rectangle{
		{TopLeft: Point{0, 0}, BottomRight: Point{0, 10}},
		{TopLeft: Point{0, 0}, BottomRight: Point{10, 0}},
		{TopLeft: Point{10, 10}, BottomRight: Point{0, 0}},
	}
	for _, r := range cases {
		if !r.Empty() {
			t.Errorf("Rectangle{%v, %v}.Empty() = false, want true", r.TopLeft, r.BottomRight)
		}
	}
}

func TestPointAddSub(t *testing.T) {
	p := Point{3, 4}
	q := Point{1, 2}
	if got := p.Add(q); got != (Point{4, 6}) {
		t.Errorf("Add() = %v, want {4 6}", got)
	}
	if got := p.Sub(q); got != (Point{2, 2}) {
		t.Errorf("Sub() = %v, want {2 2}", got)
	}
}
