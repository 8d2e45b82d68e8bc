package models

import (
	"github.com/aukilabs/collide/spatial"
)

// SpriteSpec describes a sprite to spawn.
type SpriteSpec struct {
	Kind     spatial.ShapeKind `json:"kind"`
	Position spatial.Point     `json:"position"`
	Velocity spatial.Point     `json:"velocity"`

	// Circle radius.
	Radius float64 `json:"radius,omitempty"`

	// Rectangle half extents.
	HalfSize spatial.Point `json:"half_size,omitempty"`
}

// Sprite is a moving shape living in a world. Position is the shape center.
type Sprite struct {
	ID       ID                `json:"id"`
	Kind     spatial.ShapeKind `json:"kind"`
	Position spatial.Point     `json:"position"`
	Velocity spatial.Point     `json:"velocity"`
	Radius   float64           `json:"radius,omitempty"`
	HalfSize spatial.Point     `json:"half_size,omitempty"`

	node spatial.NodeRef
}

func newSprite(id ID, spec SpriteSpec) *Sprite {
	return &Sprite{
		ID:       id,
		Kind:     spec.Kind,
		Position: spec.Position,
		Velocity: spec.Velocity,
		Radius:   spec.Radius,
		HalfSize: spec.HalfSize,
	}
}

func (s *Sprite) Bounds() spatial.Bounds {
	return s.Shape().Bounds()
}

func (s *Sprite) Shape() spatial.Shape {
	switch s.Kind {
	case spatial.ShapeCircle:
		return spatial.NewCircle(s.Position, s.Radius)
	default:
		return spatial.NewRect(spatial.Bounds{
			Left:   s.Position.X - s.HalfSize.X,
			Top:    s.Position.Y - s.HalfSize.Y,
			Right:  s.Position.X + s.HalfSize.X,
			Bottom: s.Position.Y + s.HalfSize.Y,
		})
	}
}

func (s *Sprite) Node() spatial.NodeRef {
	return s.node
}

func (s *Sprite) SetNode(r spatial.NodeRef) {
	s.node = r
}

// move integrates the velocity over seconds and reflects it off the edges of
// the given region.
func (s *Sprite) move(seconds float64, region spatial.Region) {
	s.Position = s.Position.Add(s.Velocity.Scale(seconds))

	b := s.Bounds()
	if (b.Left < region.X && s.Velocity.X < 0) ||
		(b.Right > region.Right() && s.Velocity.X > 0) {
		s.Velocity.X = -s.Velocity.X
	}
	if (b.Top < region.Y && s.Velocity.Y < 0) ||
		(b.Bottom > region.Bottom() && s.Velocity.Y > 0) {
		s.Velocity.Y = -s.Velocity.Y
	}
}
