package spatial

// Content is the set of sprites filed in exactly one node, not its
// descendants.
type Content struct {
	sprites []Sprite
	index   map[Sprite]int

	// Sprites held by the node and all of its descendants.
	subtreeCount int
}

// Add inserts s and returns false when it was already present.
func (c *Content) Add(s Sprite) bool {
	if c.index == nil {
		c.index = make(map[Sprite]int)
	}

	if _, ok := c.index[s]; ok {
		return false
	}

	c.index[s] = len(c.sprites)
	c.sprites = append(c.sprites, s)
	return true
}

// Remove deletes s by swapping it with the last sprite and returns false when
// it was not present.
func (c *Content) Remove(s Sprite) bool {
	i, ok := c.index[s]
	if !ok {
		return false
	}

	last := len(c.sprites) - 1
	if i != last {
		moved := c.sprites[last]
		c.sprites[i] = moved
		c.index[moved] = i
	}
	c.sprites[last] = nil
	c.sprites = c.sprites[:last]
	delete(c.index, s)
	return true
}

func (c *Content) Contains(s Sprite) bool {
	_, ok := c.index[s]
	return ok
}

func (c *Content) Len() int {
	return len(c.sprites)
}

// Sprites returns the sprites of the node. The slice is owned by the content
// and is only valid until the next mutation.
func (c *Content) Sprites() []Sprite {
	return c.sprites
}

// SubtreeCount returns the number of sprites held by the node and its
// descendants.
func (c *Content) SubtreeCount() int {
	return c.subtreeCount
}

func (c *Content) reset() {
	c.sprites = nil
	c.index = nil
	c.subtreeCount = 0
}
