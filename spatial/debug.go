package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// DebugInfo returns a snapshot of the tree occupancy. An uninitialized index
// returns the zero value.
func (idx *Index) DebugInfo() DebugInfo {
	if idx.tree == nil {
		return DebugInfo{MaxNode: NoNode}
	}

	t := idx.tree
	result := DebugInfo{
		Levels:      t.levels,
		NodeCount:   len(t.nodes),
		SpriteCount: idx.count,
		Region:      t.Root().region,
		Occupancy:   make([]uint32, t.levels+1),
		MaxNode:     NoNode,
		LastProcess: idx.stats,
	}
	result.SplitRatioH, result.SplitRatioV = t.SplitRatios()

	for i := range t.nodes {
		n := &t.nodes[i]
		occupancy := uint32(n.content.Len())
		result.Occupancy[n.depth] += occupancy

		if occupancy > result.MaxOccupancy {
			result.MaxOccupancy = occupancy
			result.MaxNode = n.id
		}
	}

	return result
}

// Verify walks the whole tree and checks that every sprite is filed in
// exactly one node, that its node reference agrees, that non-root nodes
// contain the bounding boxes of their sprites and that subtree counts add up.
func (idx *Index) Verify() error {
	if idx.tree == nil {
		return errNotInitialized("verify")
	}

	t := idx.tree
	seen := make(map[Sprite]NodeID, idx.count)
	subtree := make([]int, len(t.nodes))

	// Children always have a greater id than their parent, so walking the
	// arena backwards visits children before parents.
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := &t.nodes[i]

		for _, s := range n.content.sprites {
			if prev, ok := seen[s]; ok {
				return errors.New("sprite is filed in two nodes").
					WithType(ErrTypeInternalConsistency).
					WithTag("node_id", n.id).
					WithTag("other_node_id", prev)
			}
			seen[s] = n.id

			if ref := s.Node(); ref.Generation != idx.generation || ref.ID != n.id {
				return errors.New("sprite node reference does not match its node").
					WithType(ErrTypeInternalConsistency).
					WithTag("node_id", n.id).
					WithTag("ref_node_id", ref.ID).
					WithTag("ref_generation", ref.Generation)
			}

			if !n.IsRoot() && !n.region.Contains(s.Bounds()) {
				return errInconsistent("node does not contain sprite bounds", n.id)
			}
		}

		subtree[i] += n.content.Len()
		if subtree[i] != n.content.subtreeCount {
			return errors.New("subtree count mismatch").
				WithType(ErrTypeInternalConsistency).
				WithTag("node_id", n.id).
				WithTag("expected", subtree[i]).
				WithTag("actual", n.content.subtreeCount)
		}
		if !n.IsRoot() {
			subtree[n.parent] += subtree[i]
		}
	}

	if len(seen) != idx.count {
		return errors.New("indexed sprite count mismatch").
			WithType(ErrTypeInternalConsistency).
			WithTag("expected", idx.count).
			WithTag("actual", len(seen))
	}
	return nil
}
