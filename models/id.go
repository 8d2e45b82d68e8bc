package models

import (
	"fmt"
	"sync"
)

// ID identifies a sprite. Slots are reused after a despawn with a bumped
// generation, so an ID kept after its sprite is gone never resolves to
// another sprite.
type ID struct {
	Slot       uint32 `json:"slot"`
	Generation uint32 `json:"generation"`
}

func (id ID) IsZero() bool {
	return id.Generation == 0
}

func (id ID) String() string {
	return fmt.Sprintf("%d.%d", id.Slot, id.Generation)
}

// Less orders ids by slot, then generation.
func (id ID) Less(other ID) bool {
	if id.Slot != other.Slot {
		return id.Slot < other.Slot
	}
	return id.Generation < other.Generation
}

// A generational id generator.
type IDGenerator struct {
	mutex       sync.Mutex
	generations []uint32
	live        []bool
	reusable    []uint32
}

// New returns a live id. Reusable slots are returned in priority.
func (g *IDGenerator) New() ID {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if n := len(g.reusable); n > 0 {
		slot := g.reusable[n-1]
		g.reusable = g.reusable[:n-1]
		g.live[slot] = true
		return ID{Slot: slot, Generation: g.generations[slot]}
	}

	slot := uint32(len(g.generations))
	g.generations = append(g.generations, 1)
	g.live = append(g.live, true)
	return ID{Slot: slot, Generation: 1}
}

// Reuse releases the given id. It returns false when the id is not live.
func (g *IDGenerator) Reuse(id ID) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if !g.isLive(id) {
		return false
	}

	g.live[id.Slot] = false
	g.generations[id.Slot]++
	g.reusable = append(g.reusable, id.Slot)
	return true
}

// IsLive reports whether id was returned by New and not released since.
func (g *IDGenerator) IsLive(id ID) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.isLive(id)
}

func (g *IDGenerator) isLive(id ID) bool {
	return int(id.Slot) < len(g.generations) &&
		g.live[id.Slot] &&
		g.generations[id.Slot] == id.Generation
}
