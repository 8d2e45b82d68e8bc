package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// The deepest tree that can be built. A tree of MaxLevels levels holds
	// 87381 nodes.
	MaxLevels = 8

	DefaultSplitRatio = 0.5
)

// NodeID identifies a node within a tree's node arena.
type NodeID int32

const NoNode NodeID = -1

// Quadrant names the children of an internal node, in traversal order.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

// Node is a tree node. Internal nodes have a split point and exactly four
// children; leaves have neither.
type Node struct {
	id       NodeID
	parent   NodeID
	depth    int
	region   Region
	leaf     bool
	split    Point
	children [4]NodeID
	content  Content
}

func (n *Node) ID() NodeID {
	return n.id
}

func (n *Node) Region() Region {
	return n.region
}

// Parent returns the parent node id, or NoNode for the root.
func (n *Node) Parent() NodeID {
	return n.parent
}

func (n *Node) IsRoot() bool {
	return n.parent == NoNode
}

func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Depth returns the distance from the root, which has depth 0.
func (n *Node) Depth() int {
	return n.depth
}

// SplitPoint returns the point where the node region is divided. Leaves
// return false.
func (n *Node) SplitPoint() (Point, bool) {
	if n.leaf {
		return Point{}, false
	}
	return n.split, true
}

// Children returns the four children in quadrant order. Leaves return false.
func (n *Node) Children() ([4]NodeID, bool) {
	if n.leaf {
		return [4]NodeID{NoNode, NoNode, NoNode, NoNode}, false
	}
	return n.children, true
}

// Content returns the sprites filed in this exact node.
func (n *Node) Content() *Content {
	return &n.content
}

// Tree is a fixed-depth quad-tree built eagerly over a world region. Its
// shape never changes after BuildTree; only node contents do.
type Tree struct {
	nodes       []Node
	levels      int
	splitRatioH float64
	splitRatioV float64
}

// BuildTree builds a tree whose leaves sit at the given number of levels
// below the root. Split ratios outside (0, 1] fall back to
// DefaultSplitRatio.
func BuildTree(levels int, region Region, splitRatioH, splitRatioV float64) (*Tree, error) {
	if levels < 0 || levels > MaxLevels {
		return nil, errors.New("invalid tree levels").
			WithType(ErrTypeConfiguration).
			WithTag("levels", levels).
			WithTag("max_levels", MaxLevels)
	}

	if !region.Valid() {
		return nil, errors.New("invalid world region").
			WithType(ErrTypeConfiguration).
			WithTag("x", region.X).
			WithTag("y", region.Y).
			WithTag("width", region.Width).
			WithTag("height", region.Height)
	}

	t := &Tree{
		nodes:       make([]Node, 0, nodeCount(levels)),
		levels:      levels,
		splitRatioH: normalizeSplitRatio(splitRatioH),
		splitRatioV: normalizeSplitRatio(splitRatioV),
	}
	t.build(NoNode, 0, region)
	return t, nil
}

func (t *Tree) build(parent NodeID, depth int, region Region) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		id:       id,
		parent:   parent,
		depth:    depth,
		region:   region,
		leaf:     depth == t.levels,
		children: [4]NodeID{NoNode, NoNode, NoNode, NoNode},
	})

	if depth == t.levels {
		return id
	}

	split := Point{
		X: region.X + region.Width*t.splitRatioH,
		Y: region.Y + region.Height*t.splitRatioV,
	}

	leftWidth := split.X - region.X
	rightWidth := region.Right() - split.X
	topHeight := split.Y - region.Y
	bottomHeight := region.Bottom() - split.Y

	children := [4]NodeID{
		t.build(id, depth+1, Region{region.X, region.Y, leftWidth, topHeight}),
		t.build(id, depth+1, Region{split.X, region.Y, rightWidth, topHeight}),
		t.build(id, depth+1, Region{region.X, split.Y, leftWidth, bottomHeight}),
		t.build(id, depth+1, Region{split.X, split.Y, rightWidth, bottomHeight}),
	}

	n := &t.nodes[id]
	n.split = split
	n.children = children
	return id
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Node returns the node with the given id, or nil when the id is out of
// range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Levels() int {
	return t.levels
}

func (t *Tree) SplitRatios() (horizontal, vertical float64) {
	return t.splitRatioH, t.splitRatioV
}

// childFor returns the child of n that b can be filed in, or NoNode when b
// straddles a split line, does not fit the child region, or n is a leaf.
func (t *Tree) childFor(n *Node, b Bounds) NodeID {
	if n.leaf {
		return NoNode
	}

	atLeft := b.Right <= n.split.X
	atRight := b.Left >= n.split.X
	atTop := b.Bottom <= n.split.Y
	atBottom := b.Top >= n.split.Y

	if !(atLeft || atRight) || !(atTop || atBottom) {
		return NoNode
	}

	var q Quadrant
	switch {
	case atLeft && atTop:
		q = TopLeft
	case atLeft:
		q = BottomLeft
	case atTop:
		q = TopRight
	default:
		q = BottomRight
	}

	child := n.children[q]
	if !t.nodes[child].region.Contains(b) {
		return NoNode
	}
	return child
}

// place returns the deepest node at or below from that b can be filed in.
func (t *Tree) place(from NodeID, b Bounds) NodeID {
	id := from
	for {
		child := t.childFor(&t.nodes[id], b)
		if child == NoNode {
			return id
		}
		id = child
	}
}

// adjustSubtreeCounts adds delta to the subtree count of id and all its
// ancestors.
func (t *Tree) adjustSubtreeCounts(id NodeID, delta int) {
	for id != NoNode {
		n := &t.nodes[id]
		n.content.subtreeCount += delta
		id = n.parent
	}
}

func nodeCount(levels int) int {
	count := 0
	width := 1
	for i := 0; i <= levels; i++ {
		count += width
		width *= 4
	}
	return count
}

func normalizeSplitRatio(r float64) float64 {
	if r > 0 && r <= 1 {
		return r
	}
	return DefaultSplitRatio
}
