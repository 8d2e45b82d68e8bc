package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types returned by the index. Use errors.Type or errors.IsType from
// github.com/aukilabs/go-tooling/pkg/errors to classify them.
const (
	ErrTypeConfiguration       = "configuration_error"
	ErrTypeInvalidBoundingBox  = "invalid_bounding_box"
	ErrTypeNullHandle          = "null_handle"
	ErrTypeNotInitialized      = "not_initialized"
	ErrTypeInternalConsistency = "internal_consistency"
	ErrTypeStaleHandle         = "stale_handle"
)

func errNotInitialized(op string) error {
	return errors.New("index is not initialized").
		WithType(ErrTypeNotInitialized).
		WithTag("operation", op)
}

func errNullSprite(op string) error {
	return errors.New("sprite is nil").
		WithType(ErrTypeNullHandle).
		WithTag("operation", op)
}

func errInvalidBounds(b Bounds) error {
	return errors.New("invalid bounding box").
		WithType(ErrTypeInvalidBoundingBox).
		WithTag("left", b.Left).
		WithTag("top", b.Top).
		WithTag("right", b.Right).
		WithTag("bottom", b.Bottom)
}

func errStaleNode(ref NodeRef, generation uint32) error {
	return errors.New("sprite refers to a node of a previous tree").
		WithType(ErrTypeStaleHandle).
		WithTag("node_generation", ref.Generation).
		WithTag("tree_generation", generation).
		WithTag("node_id", ref.ID)
}

func errInconsistent(msg string, id NodeID) error {
	return errors.New(msg).
		WithType(ErrTypeInternalConsistency).
		WithTag("node_id", id)
}
