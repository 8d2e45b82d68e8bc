package report

import (
	"context"
	"testing"
	"time"

	"github.com/aukilabs/collide/models"
	"github.com/aukilabs/collide/spatial"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSummaryAdd(t *testing.T) {
	var s Summary

	s.add(models.FrameReport{
		Frame:       1,
		WorldUUID:   "uuid",
		SpriteCount: 3,
		Collisions:  make([]models.Collision, 2),
		Stats:       spatial.Stats{NodesVisited: 5, SubtreesPruned: 1, Tests: 4},
	})
	s.add(models.FrameReport{
		Frame:       2,
		WorldUUID:   "uuid",
		SpriteCount: 4,
		Collisions:  make([]models.Collision, 1),
		Stats:       spatial.Stats{NodesVisited: 6, Tests: 3},
	})

	require.Equal(t, Summary{
		WorldUUID:      "uuid",
		Frames:         2,
		LastFrame:      2,
		Collisions:     3,
		MaxCollisions:  2,
		SpriteCount:    4,
		NodesVisited:   11,
		SubtreesPruned: 1,
		Tests:          7,
	}, s)
}

func TestHandlerEnqueue(t *testing.T) {
	h := Handler{
		World:      "test",
		ReportChan: make(chan models.FrameReport, 1),
	}

	require.True(t, h.Enqueue(models.FrameReport{Frame: 1}))
	require.False(t, h.Enqueue(models.FrameReport{Frame: 2}))
	require.Equal(t, uint64(1), (<-h.ReportChan).Frame)
}

func TestHandlerHandleReports(t *testing.T) {
	summaries := make(chan Summary, 8)
	verified := make(chan struct{}, 8)

	h := Handler{
		World:      "test",
		Interval:   time.Millisecond * 20,
		ReportChan: make(chan models.FrameReport, 8),
		Verify: func() error {
			verified <- struct{}{}
			return errors.New("subtree count mismatch").WithType(spatial.ErrTypeInternalConsistency)
		},
		OnSummary: func(s Summary) {
			summaries <- s
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.HandleReports(ctx)

	h.Enqueue(models.FrameReport{Frame: 1, Collisions: make([]models.Collision, 1)})
	h.Enqueue(models.FrameReport{Frame: 2})

	select {
	case s := <-summaries:
		require.Equal(t, "test", s.World)
		require.Equal(t, h.Interval, s.Interval)
		require.NotZero(t, s.Frames)
	case <-time.After(time.Second * 5):
		t.Fatal("no summary")
	}

	select {
	case <-verified:
	case <-time.After(time.Second * 5):
		t.Fatal("no verification")
	}
}
