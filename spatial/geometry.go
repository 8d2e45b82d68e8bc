package spatial

import (
	"math"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(v Point) Point {
	return Point{p.X + v.X, p.Y + v.Y}
}

func (p Point) Sub(v Point) Point {
	return Point{p.X - v.X, p.Y - v.Y}
}

func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

func (p Point) LengthSquared() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Bounds is an axis-aligned bounding box in world coordinates. Y grows
// downwards, so Top is the smaller Y.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// BoundsFromCircle returns the box enclosing a circle.
func BoundsFromCircle(center Point, radius float64) Bounds {
	return Bounds{
		Left:   center.X - radius,
		Top:    center.Y - radius,
		Right:  center.X + radius,
		Bottom: center.Y + radius,
	}
}

// Valid reports whether b is well formed. NaN coordinates are never valid.
func (b Bounds) Valid() bool {
	return b.Left <= b.Right && b.Top <= b.Bottom
}

func (b Bounds) Width() float64 {
	return b.Right - b.Left
}

func (b Bounds) Height() float64 {
	return b.Bottom - b.Top
}

func (b Bounds) Center() Point {
	return Point{(b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2}
}

// Overlaps reports whether the open interiors of both boxes intersect. Boxes
// that only share an edge do not overlap.
func (b Bounds) Overlaps(o Bounds) bool {
	if b.Left >= o.Right {
		return false
	}
	if b.Right <= o.Left {
		return false
	}
	if b.Top >= o.Bottom {
		return false
	}
	if b.Bottom <= o.Top {
		return false
	}

	// overlap on both axes -> must overlap
	return true
}

// Translate returns b moved by v.
func (b Bounds) Translate(v Point) Bounds {
	return Bounds{b.Left + v.X, b.Top + v.Y, b.Right + v.X, b.Bottom + v.Y}
}

// Region is an axis-aligned rectangle described by its top-left corner and
// its size.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Region) Right() float64 {
	return r.X + r.Width
}

func (r Region) Bottom() float64 {
	return r.Y + r.Height
}

func (r Region) Bounds() Bounds {
	return Bounds{r.X, r.Y, r.Right(), r.Bottom()}
}

// Valid reports whether the region has a finite, non-negative size.
func (r Region) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// Contains reports whether b lies entirely inside r, edges included.
func (r Region) Contains(b Bounds) bool {
	return b.Left >= r.X &&
		b.Right <= r.Right() &&
		b.Top >= r.Y &&
		b.Bottom <= r.Bottom()
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(v, max))
}
