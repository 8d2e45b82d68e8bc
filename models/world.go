package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/collide/spatial"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
)

const (
	defaultWorldName     = "world"
	defaultFrameDuration = time.Second / 60
)

// WorldConfig is the configuration of a world and its collision index.
type WorldConfig struct {
	Name           string
	Region         spatial.Region
	Levels         int
	SplitRatioH    float64
	SplitRatioV    float64
	DisablePruning bool
	FrameDuration  time.Duration
}

// Collision is a pair of colliding sprites, A ordered before B.
type Collision struct {
	A ID `json:"a"`
	B ID `json:"b"`
}

// FrameReport describes the outcome of a simulated frame.
type FrameReport struct {
	Frame       uint64        `json:"frame"`
	WorldUUID   string        `json:"world_uuid"`
	Timestamp   time.Time     `json:"timestamp"`
	SpriteCount int           `json:"sprite_count"`
	Collisions  []Collision   `json:"collisions"`
	Stats       spatial.Stats `json:"stats"`
}

// World owns a set of moving sprites and the collision index they are filed
// in. Each frame moves the sprites, relocates them in the index and collects
// the colliding pairs.
type World struct {
	UUID   string
	Name   string
	Region spatial.Region

	frameDuration time.Duration

	mutex   sync.Mutex
	index   spatial.Index
	ids     IDGenerator
	sprites map[ID]*Sprite
	frame   uint64

	frameHandlerIDs uint32
	frameHandlers   map[uint32]func(FrameReport)
	frameMutex      sync.RWMutex

	closeOnce sync.Once
	closeChan chan struct{}
}

func NewWorld(conf WorldConfig) (*World, error) {
	if conf.Name == "" {
		conf.Name = defaultWorldName
	}
	if conf.FrameDuration <= 0 {
		conf.FrameDuration = defaultFrameDuration
	}

	w := &World{
		UUID:          uuid.New().String(),
		Name:          conf.Name,
		Region:        conf.Region,
		frameDuration: conf.FrameDuration,
		sprites:       make(map[ID]*Sprite),
		frameHandlers: make(map[uint32]func(FrameReport)),
		closeChan:     make(chan struct{}),
	}

	err := w.index.Init(conf.Levels, conf.Region,
		spatial.WithName(conf.Name),
		spatial.WithSplitRatio(conf.SplitRatioH, conf.SplitRatioV),
		spatial.WithSubtreePruning(!conf.DisablePruning),
	)
	if err != nil {
		return nil, errors.New("initializing collision index failed").
			WithType(errors.Type(err)).
			WithTag("world", conf.Name).
			Wrap(err)
	}

	return w, nil
}

// Spawn adds a sprite to the world.
func (w *World) Spawn(spec SpriteSpec) (*Sprite, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s := newSprite(w.ids.New(), spec)
	if _, err := w.index.Add(s); err != nil {
		w.ids.Reuse(s.ID)
		return nil, errors.New("spawning sprite failed").
			WithType(errors.Type(err)).
			WithTag("world", w.Name).
			WithTag("kind", spec.Kind.String()).
			Wrap(err)
	}

	w.sprites[s.ID] = s
	instrumentSpawn(w.Name)
	return s, nil
}

// Despawn removes a sprite from the world. It returns false when no live
// sprite has the given id.
func (w *World) Despawn(id ID) (bool, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, ok := w.sprites[id]
	if !ok {
		return false, nil
	}

	if _, err := w.index.Remove(s); err != nil {
		return false, errors.New("despawning sprite failed").
			WithType(errors.Type(err)).
			WithTag("world", w.Name).
			WithTag("sprite_id", id.String()).
			Wrap(err)
	}

	delete(w.sprites, id)
	w.ids.Reuse(id)
	instrumentDespawn(w.Name)
	return true, nil
}

// Sprite returns a copy of the sprite with the given id.
func (w *World) Sprite(id ID) (Sprite, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, ok := w.sprites[id]
	if !ok {
		return Sprite{}, false
	}
	return *s, true
}

// Sprites returns a copy of every sprite, ordered by id.
func (w *World) Sprites() []Sprite {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	sprites := make([]Sprite, 0, len(w.sprites))
	for _, s := range w.sprites {
		sprites = append(sprites, *s)
	}

	sort.Slice(sprites, func(i, j int) bool {
		return sprites[i].ID.Less(sprites[j].ID)
	})
	return sprites
}

func (w *World) SpriteCount() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return len(w.sprites)
}

// SetVelocity changes the velocity of a sprite. It returns false when no
// live sprite has the given id.
func (w *World) SetVelocity(id ID, v spatial.Point) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	s, ok := w.sprites[id]
	if ok {
		s.Velocity = v
	}
	return ok
}

// Step simulates a frame of the given duration and notifies the frame
// handlers.
func (w *World) Step(elapsed time.Duration) (FrameReport, error) {
	report, err := w.step(elapsed)
	if err != nil {
		return FrameReport{}, err
	}

	w.frameMutex.RLock()
	defer w.frameMutex.RUnlock()

	for _, h := range w.frameHandlers {
		h(report)
	}
	return report, nil
}

func (w *World) step(elapsed time.Duration) (FrameReport, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	start := time.Now()
	seconds := elapsed.Seconds()

	for _, s := range w.sprites {
		s.move(seconds, w.Region)

		if err := w.index.UpdatePosition(s); err != nil {
			return FrameReport{}, errors.New("relocating sprite failed").
				WithType(errors.Type(err)).
				WithTag("world", w.Name).
				WithTag("sprite_id", s.ID.String()).
				Wrap(err)
		}
	}

	events, err := w.index.Process()
	if err != nil {
		return FrameReport{}, errors.New("processing collisions failed").
			WithType(errors.Type(err)).
			WithTag("world", w.Name).
			Wrap(err)
	}

	collisions := make([]Collision, len(events))
	for i, e := range events {
		a, b := e.A.(*Sprite).ID, e.B.(*Sprite).ID
		if b.Less(a) {
			a, b = b, a
		}
		collisions[i] = Collision{A: a, B: b}
	}

	sort.Slice(collisions, func(i, j int) bool {
		if collisions[i].A != collisions[j].A {
			return collisions[i].A.Less(collisions[j].A)
		}
		return collisions[i].B.Less(collisions[j].B)
	})

	w.frame++
	instrumentFrame(w.Name, len(collisions), start)

	return FrameReport{
		Frame:       w.frame,
		WorldUUID:   w.UUID,
		Timestamp:   start,
		SpriteCount: len(w.sprites),
		Collisions:  collisions,
		Stats:       w.index.Stats(),
	}, nil
}

// DebugInfo returns the collision index debug snapshot.
func (w *World) DebugInfo() spatial.DebugInfo {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.index.DebugInfo()
}

// Verify checks the collision index integrity.
func (w *World) Verify() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.index.Verify()
}

// OnFrame registers a function called after every frame and returns an id to
// remove it with. Handlers run on the frame loop and must not block.
func (w *World) OnFrame(h func(FrameReport)) uint32 {
	w.frameMutex.Lock()
	defer w.frameMutex.Unlock()

	w.frameHandlerIDs++
	id := w.frameHandlerIDs
	w.frameHandlers[id] = h
	return id
}

func (w *World) RemoveFrameHandler(id uint32) {
	w.frameMutex.Lock()
	defer w.frameMutex.Unlock()

	delete(w.frameHandlers, id)
}

// Run steps the world on every frame tick until the context is done or the
// world is closed.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.frameDuration)
	defer ticker.Stop()

	logs.WithTag("world", w.Name).
		WithTag("world_uuid", w.UUID).
		WithTag("frame_duration", w.frameDuration).
		Info("world started")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.logStop()
			return ctx.Err()

		case <-w.closeChan:
			w.logStop()
			return nil

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			if _, err := w.Step(elapsed); err != nil {
				return err
			}
		}
	}
}

func (w *World) logStop() {
	w.mutex.Lock()
	frame := w.frame
	w.mutex.Unlock()

	logs.WithTag("world", w.Name).
		WithTag("world_uuid", w.UUID).
		WithTag("frames", frame).
		Info("world stopped")
}

func (w *World) Close() {
	w.closeOnce.Do(func() {
		close(w.closeChan)
	})
}
