package spatial

import (
	"time"
)

const defaultIndexName = "default"

// Stats describes the work done by the last Process call.
type Stats struct {
	NodesVisited   int `json:"nodes_visited"`
	SubtreesPruned int `json:"subtrees_pruned"`
	Tests          int `json:"tests"`
	Collisions     int `json:"collisions"`
}

// Option configures an index at Init.
type Option func(*options)

type options struct {
	name        string
	splitRatioH float64
	splitRatioV float64
	pruning     bool
}

// WithSplitRatio sets where each internal node is split, as a fraction of its
// width and height. Values outside (0, 1] fall back to DefaultSplitRatio.
func WithSplitRatio(horizontal, vertical float64) Option {
	return func(o *options) {
		o.splitRatioH = horizontal
		o.splitRatioV = vertical
	}
}

// WithSubtreePruning sets whether Process skips subtrees that cannot
// contribute a pair. Enabled by default.
func WithSubtreePruning(enabled bool) Option {
	return func(o *options) {
		o.pruning = enabled
	}
}

// WithName sets the name the index reports its metrics under.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Index is a broad-phase collision index backed by a fixed quad-tree.
//
// The zero value is an uninitialized index; call Init before anything else.
// An index is not safe for concurrent use: Add, UpdatePosition, Remove and
// Process must be called from one goroutine, one at a time.
type Index struct {
	name       string
	tree       *Tree
	generation uint32
	pruning    bool
	count      int

	ancestors []Sprite
	events    []CollisionEvent
	stats     Stats
}

// Init builds the tree. Calling Init again replaces the tree and forgets every
// sprite; node references held by those sprites become stale. A failed Init
// leaves the index as it was.
func (idx *Index) Init(levels int, region Region, opts ...Option) error {
	o := options{
		name:        defaultIndexName,
		splitRatioH: DefaultSplitRatio,
		splitRatioV: DefaultSplitRatio,
		pruning:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	tree, err := BuildTree(levels, region, o.splitRatioH, o.splitRatioV)
	if err != nil {
		return err
	}

	if idx.tree != nil {
		instrumentSpriteCount(idx.name, -idx.count)
	}

	idx.name = o.name
	idx.tree = tree
	idx.generation++
	idx.pruning = o.pruning
	idx.count = 0
	idx.ancestors = nil
	idx.events = nil
	idx.stats = Stats{}
	return nil
}

func (idx *Index) IsInitialized() bool {
	return idx.tree != nil
}

// Levels returns the depth of the tree leaves, or 0 when the index is not
// initialized.
func (idx *Index) Levels() int {
	if idx.tree == nil {
		return 0
	}
	return idx.tree.Levels()
}

// Tree returns the underlying tree, or nil when the index is not initialized.
func (idx *Index) Tree() *Tree {
	return idx.tree
}

// Count returns the number of indexed sprites.
func (idx *Index) Count() int {
	return idx.count
}

// Stats returns the counters of the last Process call.
func (idx *Index) Stats() Stats {
	return idx.stats
}

// Add files s in the deepest node that fully contains its bounding box
// without crossing a split line. It returns false when s was already indexed;
// an already indexed sprite is relocated instead of being filed twice.
func (idx *Index) Add(s Sprite) (bool, error) {
	if idx.tree == nil {
		return false, errNotInitialized("add")
	}
	if isNilSprite(s) {
		return false, errNullSprite("add")
	}

	b := s.Bounds()
	if !b.Valid() {
		return false, errInvalidBounds(b)
	}

	if ref := s.Node(); !ref.IsZero() && ref.Generation == idx.generation {
		if n := idx.tree.Node(ref.ID); n != nil && n.content.Contains(s) {
			if _, err := idx.relocate(s, n, b); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	id := idx.tree.place(0, b)
	n := &idx.tree.nodes[id]
	if !n.content.Add(s) {
		s.SetNode(NodeRef{Generation: idx.generation, ID: id})
		return false, nil
	}

	idx.tree.adjustSubtreeCounts(id, 1)
	idx.count++

	if root := idx.tree.Root(); root.content.subtreeCount != idx.count {
		n.content.Remove(s)
		idx.tree.adjustSubtreeCounts(id, -1)
		idx.count--
		return false, errInconsistent("subtree count mismatch after add", id)
	}

	s.SetNode(NodeRef{Generation: idx.generation, ID: id})
	instrumentSpriteCount(idx.name, 1)
	return true, nil
}

// UpdatePosition moves s to the node matching its current bounding box. It is
// a no-op for sprites that are not filed in any node.
func (idx *Index) UpdatePosition(s Sprite) error {
	if idx.tree == nil {
		return errNotInitialized("update_position")
	}
	if isNilSprite(s) {
		return errNullSprite("update_position")
	}

	ref := s.Node()
	if ref.IsZero() {
		return nil
	}

	n, err := idx.recordedNode(ref)
	if err != nil {
		return err
	}

	b := s.Bounds()
	if !b.Valid() {
		return errInvalidBounds(b)
	}

	_, err = idx.relocate(s, n, b)
	return err
}

// Remove takes s out of the index and clears its node reference. It returns
// false when s was not indexed.
func (idx *Index) Remove(s Sprite) (bool, error) {
	if idx.tree == nil {
		return false, errNotInitialized("remove")
	}
	if isNilSprite(s) {
		return false, errNullSprite("remove")
	}

	ref := s.Node()
	if ref.IsZero() {
		return false, nil
	}

	n, err := idx.recordedNode(ref)
	if err != nil {
		return false, err
	}

	if !n.content.Remove(s) {
		return false, errInconsistent("sprite is missing from its recorded node", n.id)
	}

	idx.tree.adjustSubtreeCounts(n.id, -1)
	idx.count--
	s.SetNode(NodeRef{})
	instrumentSpriteCount(idx.name, -1)
	return true, nil
}

func (idx *Index) recordedNode(ref NodeRef) (*Node, error) {
	if ref.Generation != idx.generation {
		return nil, errStaleNode(ref, idx.generation)
	}

	n := idx.tree.Node(ref.ID)
	if n == nil {
		return nil, errInconsistent("sprite refers to an unknown node", ref.ID)
	}
	return n, nil
}

// relocate finds the node b belongs to, starting from the node s is filed in:
// it first climbs until a node contains b, then descends as deep as b fits.
// The move is applied only once the new node accepted s.
func (idx *Index) relocate(s Sprite, from *Node, b Bounds) (NodeID, error) {
	id := from.id
	for {
		n := &idx.tree.nodes[id]
		if n.IsRoot() || n.region.Contains(b) {
			break
		}
		id = n.parent
	}
	id = idx.tree.place(id, b)

	if id == from.id {
		return id, nil
	}

	if !from.content.Contains(s) {
		return from.id, errInconsistent("sprite is missing from its recorded node", from.id)
	}

	to := &idx.tree.nodes[id]
	if !to.content.Add(s) {
		return from.id, errInconsistent("sprite is already filed in the target node", id)
	}
	from.content.Remove(s)

	idx.tree.adjustSubtreeCounts(from.id, -1)
	idx.tree.adjustSubtreeCounts(id, 1)
	s.SetNode(NodeRef{Generation: idx.generation, ID: id})
	instrumentRelocation(idx.name)
	return id, nil
}

// Process returns every pair of indexed sprites whose shapes overlap. Each
// pair is tested at most once: sprites of a node are tested against each
// other and against the sprites of the node ancestors, never against sprites
// of sibling subtrees.
func (idx *Index) Process() ([]CollisionEvent, error) {
	if idx.tree == nil {
		return nil, errNotInitialized("process")
	}

	start := time.Now()
	idx.events = make([]CollisionEvent, 0, len(idx.events))
	idx.ancestors = idx.ancestors[:0]
	idx.stats = Stats{}

	idx.visit(0)

	if len(idx.ancestors) != 0 {
		idx.ancestors = idx.ancestors[:0]
		return nil, errInconsistent("ancestor stack is not empty after traversal", 0)
	}

	idx.stats.Collisions = len(idx.events)
	instrumentProcess(idx.name, idx.stats, start)
	return idx.events, nil
}

func (idx *Index) visit(id NodeID) {
	n := &idx.tree.nodes[id]
	idx.stats.NodesVisited++

	own := n.content.sprites
	for i, a := range own {
		for _, b := range own[i+1:] {
			idx.test(a, b)
		}
		for _, b := range idx.ancestors {
			idx.test(a, b)
		}
	}

	if n.leaf {
		return
	}

	idx.ancestors = append(idx.ancestors, own...)
	for _, child := range n.children {
		if idx.pruning && idx.prunable(child) {
			idx.stats.SubtreesPruned++
			continue
		}
		idx.visit(child)
	}
	idx.ancestors = idx.ancestors[:len(idx.ancestors)-len(own)]
}

// prunable reports whether the subtree rooted at id cannot produce a pair.
func (idx *Index) prunable(id NodeID) bool {
	count := idx.tree.nodes[id].content.subtreeCount
	return count == 0 || (count == 1 && len(idx.ancestors) == 0)
}

func (idx *Index) test(a, b Sprite) {
	idx.stats.Tests++
	if Collides(a.Shape(), b.Shape()) {
		idx.events = append(idx.events, CollisionEvent{A: a, B: b})
	}
}
