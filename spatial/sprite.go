package spatial

import (
	"reflect"
)

// Sprite is an object indexed by the collision index.
//
// Implementations must be comparable (pointer receivers are the usual
// choice) since the index keeps sprites in sets. The index is the only writer
// of the node reference; sprites merely store it.
type Sprite interface {
	// Returns the current world bounding box.
	Bounds() Bounds

	// Returns the shape used for narrow-phase testing.
	Shape() Shape

	// Returns the node the sprite was last filed in.
	Node() NodeRef

	// Stores the node the sprite is filed in.
	SetNode(NodeRef)
}

// NodeRef is the back-reference from a sprite to its owning node. The zero
// value means the sprite is not filed in any tree.
type NodeRef struct {
	Generation uint32
	ID         NodeID
}

// IsZero reports whether the reference points to no node.
func (r NodeRef) IsZero() bool {
	return r.Generation == 0
}

// CollisionEvent is an unordered pair of sprites found overlapping during a
// Process call.
type CollisionEvent struct {
	A Sprite
	B Sprite
}

// Involves reports whether s is one of the two sprites of the event.
func (e CollisionEvent) Involves(s Sprite) bool {
	return e.A == s || e.B == s
}

func isNilSprite(s Sprite) bool {
	if s == nil {
		return true
	}

	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
