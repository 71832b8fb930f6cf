// Package geom provides the immutable integer geometry primitives shared by
// the digitization pipeline: pixel coordinates and axis-aligned rectangles.
package geom

// Point is an integer pixel coordinate. X increases rightwards, Y increases
// downwards, matching raster image conventions throughout this module.
type Point struct {
	X, Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}
