package models

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/collide/spatial"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) *World {
	w, err := NewWorld(WorldConfig{
		Name:          "test",
		Region:        spatial.Region{Width: 100, Height: 100},
		Levels:        3,
		FrameDuration: time.Millisecond,
	})
	require.NoError(t, err)
	return w
}

func circleSpec(x, y, vx, vy, r float64) SpriteSpec {
	return SpriteSpec{
		Kind:     spatial.ShapeCircle,
		Position: spatial.Point{X: x, Y: y},
		Velocity: spatial.Point{X: vx, Y: vy},
		Radius:   r,
	}
}

func TestNewWorld(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		w, err := NewWorld(WorldConfig{
			Region: spatial.Region{Width: 10, Height: 10},
			Levels: 1,
		})
		require.NoError(t, err)
		require.Equal(t, defaultWorldName, w.Name)
		require.Equal(t, defaultFrameDuration, w.frameDuration)
		require.NotEmpty(t, w.UUID)
		require.Equal(t, 1, w.DebugInfo().Levels)
	})

	t.Run("invalid levels", func(t *testing.T) {
		_, err := NewWorld(WorldConfig{
			Region: spatial.Region{Width: 10, Height: 10},
			Levels: spatial.MaxLevels + 1,
		})
		require.Error(t, err)
		require.Equal(t, spatial.ErrTypeConfiguration, errors.Type(err))
	})

	t.Run("invalid region", func(t *testing.T) {
		_, err := NewWorld(WorldConfig{
			Region: spatial.Region{Width: -10, Height: 10},
			Levels: 2,
		})
		require.Error(t, err)
		require.Equal(t, spatial.ErrTypeConfiguration, errors.Type(err))
	})
}

func TestWorldSpawn(t *testing.T) {
	w := newTestWorld(t)

	a, err := w.Spawn(circleSpec(10, 10, 0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, ID{Slot: 0, Generation: 1}, a.ID)
	require.False(t, a.Node().IsZero())

	b, err := w.Spawn(SpriteSpec{
		Kind:     spatial.ShapeRect,
		Position: spatial.Point{X: 80, Y: 80},
		HalfSize: spatial.Point{X: 3, Y: 4},
	})
	require.NoError(t, err)
	require.Equal(t, ID{Slot: 1, Generation: 1}, b.ID)
	require.Equal(t, spatial.Bounds{Left: 77, Top: 76, Right: 83, Bottom: 84}, b.Bounds())

	require.Equal(t, 2, w.SpriteCount())
	require.NoError(t, w.Verify())

	t.Run("invalid shape is rejected", func(t *testing.T) {
		_, err := w.Spawn(circleSpec(50, 50, 0, 0, -1))
		require.Error(t, err)
		require.Equal(t, spatial.ErrTypeInvalidBoundingBox, errors.Type(err))
		require.Equal(t, 2, w.SpriteCount())

		c, err := w.Spawn(circleSpec(50, 50, 0, 0, 1))
		require.NoError(t, err)
		require.Equal(t, ID{Slot: 2, Generation: 2}, c.ID)
	})
}

func TestWorldDespawn(t *testing.T) {
	w := newTestWorld(t)

	s, err := w.Spawn(circleSpec(10, 10, 0, 0, 2))
	require.NoError(t, err)

	removed, err := w.Despawn(s.ID)
	require.NoError(t, err)
	require.True(t, removed)
	require.Zero(t, w.SpriteCount())
	require.Zero(t, w.DebugInfo().SpriteCount)

	removed, err = w.Despawn(s.ID)
	require.NoError(t, err)
	require.False(t, removed)

	_, ok := w.Sprite(s.ID)
	require.False(t, ok)

	s2, err := w.Spawn(circleSpec(10, 10, 0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, ID{Slot: 0, Generation: 2}, s2.ID)
}

func TestWorldSprites(t *testing.T) {
	w := newTestWorld(t)

	for i := 0; i < 5; i++ {
		_, err := w.Spawn(circleSpec(float64(10+i*10), 50, 1, 0, 2))
		require.NoError(t, err)
	}

	sprites := w.Sprites()
	require.Len(t, sprites, 5)
	for i, s := range sprites {
		require.Equal(t, uint32(i), s.ID.Slot)
	}

	s, ok := w.Sprite(ID{Slot: 3, Generation: 1})
	require.True(t, ok)
	require.Equal(t, spatial.Point{X: 40, Y: 50}, s.Position)

	s.Position = spatial.Point{}
	s, _ = w.Sprite(ID{Slot: 3, Generation: 1})
	require.Equal(t, spatial.Point{X: 40, Y: 50}, s.Position)
}

func TestWorldStep(t *testing.T) {
	t.Run("approaching sprites collide", func(t *testing.T) {
		w := newTestWorld(t)

		a, err := w.Spawn(circleSpec(10, 50, 10, 0, 5))
		require.NoError(t, err)
		b, err := w.Spawn(circleSpec(30, 50, -10, 0, 5))
		require.NoError(t, err)
		_, err = w.Spawn(circleSpec(80, 10, 0, 0, 5))
		require.NoError(t, err)

		report, err := w.Step(500 * time.Millisecond)
		require.NoError(t, err)
		require.Equal(t, uint64(1), report.Frame)
		require.Equal(t, w.UUID, report.WorldUUID)
		require.Equal(t, 3, report.SpriteCount)
		require.Empty(t, report.Collisions)

		report, err = w.Step(500 * time.Millisecond)
		require.NoError(t, err)
		require.Equal(t, uint64(2), report.Frame)
		require.Equal(t, []Collision{{A: a.ID, B: b.ID}}, report.Collisions)
		require.Equal(t, 1, report.Stats.Collisions)
		require.NoError(t, w.Verify())
	})

	t.Run("sprites bounce off the world edges", func(t *testing.T) {
		w := newTestWorld(t)

		s, err := w.Spawn(circleSpec(95, 50, 10, 0, 2))
		require.NoError(t, err)

		_, err = w.Step(time.Second)
		require.NoError(t, err)

		moved, ok := w.Sprite(s.ID)
		require.True(t, ok)
		require.Equal(t, spatial.Point{X: 105, Y: 50}, moved.Position)
		require.Equal(t, spatial.Point{X: -10, Y: 0}, moved.Velocity)
		require.NoError(t, w.Verify())

		_, err = w.Step(time.Second)
		require.NoError(t, err)

		moved, _ = w.Sprite(s.ID)
		require.Equal(t, spatial.Point{X: 95, Y: 50}, moved.Position)
		require.NoError(t, w.Verify())
	})

	t.Run("velocity changes", func(t *testing.T) {
		w := newTestWorld(t)

		s, err := w.Spawn(circleSpec(50, 50, 0, 0, 2))
		require.NoError(t, err)
		require.True(t, w.SetVelocity(s.ID, spatial.Point{X: 0, Y: 20}))
		require.False(t, w.SetVelocity(ID{Slot: 9, Generation: 1}, spatial.Point{}))

		_, err = w.Step(time.Second)
		require.NoError(t, err)

		moved, _ := w.Sprite(s.ID)
		require.Equal(t, spatial.Point{X: 50, Y: 70}, moved.Position)
	})
}

func TestWorldFrameHandlers(t *testing.T) {
	w := newTestWorld(t)

	var reports []FrameReport
	id := w.OnFrame(func(r FrameReport) {
		reports = append(reports, r)
	})

	_, err := w.Step(time.Millisecond)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, uint64(1), reports[0].Frame)

	w.RemoveFrameHandler(id)

	_, err = w.Step(time.Millisecond)
	require.NoError(t, err)
	require.Len(t, reports, 1)
}

func TestWorldRun(t *testing.T) {
	t.Run("stops when the context is done", func(t *testing.T) {
		w := newTestWorld(t)

		ctx, cancel := context.WithCancel(context.Background())

		var once sync.Once
		w.OnFrame(func(r FrameReport) {
			if r.Frame >= 3 {
				once.Do(cancel)
			}
		})

		err := w.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("stops when the world is closed", func(t *testing.T) {
		w := newTestWorld(t)

		var once sync.Once
		w.OnFrame(func(r FrameReport) {
			once.Do(w.Close)
		})

		err := w.Run(context.Background())
		require.NoError(t, err)

		w.Close()
	})
}
