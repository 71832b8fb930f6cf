package geom

// Rectangle is an axis-aligned rectangle defined by its top-left and
// bottom-right corners, in pixel coordinates. It is a half-open interval on
// both axes: TopLeft is inside the rectangle, BottomRight is not.
type Rectangle struct {
	TopLeft     Point
	BottomRight Point
}

// NewRectangle builds a Rectangle from a top-left corner and a size.
func NewRectangle(x, y, width, height int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: x, Y: y},
		BottomRight: Point{X: x + width, Y: y + height},
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rectangle) Width() int {
	return r.BottomRight.X - r.TopLeft.X
}

// Height returns the vertical extent of the rectangle.
func (r Rectangle) Height() int {
	return r.BottomRight.Y - r.TopLeft.Y
}

// Empty reports whether the rectangle has non-positive width or height.
func (r Rectangle) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}
