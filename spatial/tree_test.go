package spatial

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	t.Run("levels are validated", func(t *testing.T) {
		for _, levels := range []int{-1, MaxLevels + 1} {
			tree, err := BuildTree(levels, Region{0, 0, 100, 100}, 0.5, 0.5)
			require.Error(t, err)
			require.Nil(t, tree)
			require.Equal(t, ErrTypeConfiguration, errors.Type(err))
		}
	})

	t.Run("region is validated", func(t *testing.T) {
		for _, r := range []Region{
			{0, 0, -1, 10},
			{0, 0, 10, math.NaN()},
			{math.Inf(1), 0, 10, 10},
		} {
			_, err := BuildTree(2, r, 0.5, 0.5)
			require.Equal(t, ErrTypeConfiguration, errors.Type(err))
		}
	})

	t.Run("a tree of zero levels is a single leaf", func(t *testing.T) {
		tree, err := BuildTree(0, Region{0, 0, 100, 100}, 0.5, 0.5)
		require.NoError(t, err)
		require.Equal(t, 1, tree.Len())

		root := tree.Root()
		require.True(t, root.IsRoot())
		require.True(t, root.IsLeaf())

		_, ok := root.SplitPoint()
		require.False(t, ok)

		children, ok := root.Children()
		require.False(t, ok)
		require.Equal(t, [4]NodeID{NoNode, NoNode, NoNode, NoNode}, children)
	})

	t.Run("node count grows by four per level", func(t *testing.T) {
		for levels, count := range []int{1, 5, 21, 85, 341} {
			tree, err := BuildTree(levels, Region{0, 0, 100, 100}, 0.5, 0.5)
			require.NoError(t, err)
			require.Equal(t, count, tree.Len())
			require.Equal(t, levels, tree.Levels())
		}
	})

	t.Run("invalid split ratios fall back to the default", func(t *testing.T) {
		for _, ratio := range []float64{0, -0.3, 1.5, math.NaN()} {
			tree, err := BuildTree(1, Region{0, 0, 100, 100}, ratio, ratio)
			require.NoError(t, err)

			h, v := tree.SplitRatios()
			require.Equal(t, DefaultSplitRatio, h)
			require.Equal(t, DefaultSplitRatio, v)

			split, ok := tree.Root().SplitPoint()
			require.True(t, ok)
			require.Equal(t, Point{50, 50}, split)
		}
	})

	t.Run("children partition their parent at the split point", func(t *testing.T) {
		tree, err := BuildTree(3, Region{10, 20, 200, 100}, 0.25, 0.75)
		require.NoError(t, err)

		for i := 0; i < tree.Len(); i++ {
			n := tree.Node(NodeID(i))
			children, ok := n.Children()
			if !ok {
				require.Equal(t, 3, n.Depth())
				continue
			}

			split, _ := n.SplitPoint()
			r := n.Region()
			require.InDelta(t, r.X+r.Width*0.25, split.X, 1e-9)
			require.InDelta(t, r.Y+r.Height*0.75, split.Y, 1e-9)

			tl := tree.Node(children[TopLeft]).Region()
			tr := tree.Node(children[TopRight]).Region()
			bl := tree.Node(children[BottomLeft]).Region()
			br := tree.Node(children[BottomRight]).Region()

			require.Equal(t, Region{r.X, r.Y, split.X - r.X, split.Y - r.Y}, tl)
			require.Equal(t, Region{split.X, r.Y, r.Right() - split.X, split.Y - r.Y}, tr)
			require.Equal(t, Region{r.X, split.Y, split.X - r.X, r.Bottom() - split.Y}, bl)
			require.Equal(t, Region{split.X, split.Y, r.Right() - split.X, r.Bottom() - split.Y}, br)

			area := tl.Width*tl.Height + tr.Width*tr.Height + bl.Width*bl.Height + br.Width*br.Height
			require.InDelta(t, r.Width*r.Height, area, 1e-6)

			for _, c := range children {
				child := tree.Node(c)
				require.Equal(t, n.ID(), child.Parent())
				require.False(t, child.IsRoot())
				require.Equal(t, n.Depth()+1, child.Depth())
			}
		}
	})

	t.Run("out of range node ids return nil", func(t *testing.T) {
		tree, err := BuildTree(1, Region{0, 0, 100, 100}, 0.5, 0.5)
		require.NoError(t, err)
		require.Nil(t, tree.Node(NoNode))
		require.Nil(t, tree.Node(5))
		require.NotNil(t, tree.Node(4))
	})
}

func TestTreeChildFor(t *testing.T) {
	tree, err := BuildTree(1, Region{0, 0, 100, 100}, 0.5, 0.5)
	require.NoError(t, err)
	root := tree.Root()
	children, _ := root.Children()

	cases := []struct {
		name     string
		bounds   Bounds
		expected NodeID
	}{
		{"top left", Bounds{10, 10, 20, 20}, children[TopLeft]},
		{"top right", Bounds{60, 10, 70, 20}, children[TopRight]},
		{"bottom left", Bounds{10, 60, 20, 70}, children[BottomLeft]},
		{"bottom right", Bounds{60, 60, 70, 70}, children[BottomRight]},
		{"touching the split from the left", Bounds{40, 10, 50, 20}, children[TopLeft]},
		{"touching the split from the right", Bounds{50, 60, 60, 70}, children[BottomRight]},
		{"zero width on the split", Bounds{50, 10, 50, 20}, children[TopLeft]},
		{"straddling vertically", Bounds{10, 45, 20, 55}, NoNode},
		{"straddling horizontally", Bounds{45, 10, 55, 20}, NoNode},
		{"outside the world", Bounds{-20, -20, -10, -10}, NoNode},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, tree.childFor(root, c.bounds))
		})
	}

	leaf := tree.Node(children[TopLeft])
	require.Equal(t, NoNode, tree.childFor(leaf, Bounds{1, 1, 2, 2}))
}
