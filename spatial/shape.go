package spatial

import (
	"fmt"
)

type ShapeKind uint8

const (
	ShapeRect ShapeKind = iota
	ShapeCircle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRect:
		return "rect"
	case ShapeCircle:
		return "circle"
	default:
		return fmt.Sprintf("shape(%d)", k)
	}
}

// Shape is the narrow-phase description of a sprite. Only the fields of the
// given Kind are meaningful.
type Shape struct {
	Kind ShapeKind

	// ShapeRect.
	Rect Bounds

	// ShapeCircle.
	Center Point
	Radius float64
}

func NewRect(b Bounds) Shape {
	return Shape{Kind: ShapeRect, Rect: b}
}

func NewCircle(center Point, radius float64) Shape {
	return Shape{Kind: ShapeCircle, Center: center, Radius: radius}
}

// Bounds returns the bounding box of the shape.
func (s Shape) Bounds() Bounds {
	switch s.Kind {
	case ShapeCircle:
		return BoundsFromCircle(s.Center, s.Radius)
	default:
		return s.Rect
	}
}

// Collides runs the exact overlap test between two shapes. Shapes that only
// touch do not collide.
func Collides(a, b Shape) bool {
	switch a.Kind {
	case ShapeCircle:
		switch b.Kind {
		case ShapeCircle:
			return circlesCollide(a.Center, a.Radius, b.Center, b.Radius)
		case ShapeRect:
			return rectCircleCollide(b.Rect, a.Center, a.Radius)
		}

	case ShapeRect:
		switch b.Kind {
		case ShapeCircle:
			return rectCircleCollide(a.Rect, b.Center, b.Radius)
		case ShapeRect:
			return a.Rect.Overlaps(b.Rect)
		}
	}
	return false
}

func circlesCollide(c1 Point, r1 float64, c2 Point, r2 float64) bool {
	radSum := r1 + r2
	return c2.Sub(c1).LengthSquared() < radSum*radSum
}

func rectCircleCollide(r Bounds, c Point, radius float64) bool {
	if c.X > r.Left && c.X < r.Right && c.Y > r.Top && c.Y < r.Bottom {
		return true
	}

	closest := Point{
		X: clamp(c.X, r.Left, r.Right),
		Y: clamp(c.Y, r.Top, r.Bottom),
	}
	return c.Sub(closest).LengthSquared() < radius*radius
}
