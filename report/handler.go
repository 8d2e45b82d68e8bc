package report

import (
	"context"
	"time"

	"github.com/aukilabs/collide/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	defaultInterval = time.Minute
)

// Summary aggregates the frame reports received during an interval.
type Summary struct {
	World          string
	WorldUUID      string
	Interval       time.Duration
	Frames         int
	LastFrame      uint64
	Collisions     int
	MaxCollisions  int
	SpriteCount    int
	NodesVisited   int
	SubtreesPruned int
	Tests          int
}

func (s *Summary) add(r models.FrameReport) {
	s.WorldUUID = r.WorldUUID
	s.Frames++
	s.LastFrame = r.Frame
	s.Collisions += len(r.Collisions)
	if len(r.Collisions) > s.MaxCollisions {
		s.MaxCollisions = len(r.Collisions)
	}
	s.SpriteCount = r.SpriteCount
	s.NodesVisited += r.Stats.NodesVisited
	s.SubtreesPruned += r.Stats.SubtreesPruned
	s.Tests += r.Stats.Tests
}

// Handler consumes frame reports off the frame loop. It logs a summary of
// the received reports on every interval and checks the collision index
// integrity when Verify is set.
type Handler struct {
	World      string
	Interval   time.Duration
	ReportChan chan models.FrameReport // buffered
	Verify     func() error

	// Called with every summary after it is logged.
	OnSummary func(Summary)
}

// Enqueue queues a report without blocking. It returns false when the queue
// is full.
func (h Handler) Enqueue(r models.FrameReport) bool {
	select {
	case h.ReportChan <- r:
		return true
	default:
		instrumentDroppedReport(h.World)
		return false
	}
}

func (h Handler) HandleReports(ctx context.Context) {
	interval := h.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		summary := Summary{World: h.World, Interval: interval}

		for {
			select {
			case <-ctx.Done():
				h.flush(summary)
				return

			case r := <-h.ReportChan:
				summary.add(r)

			case <-ticker.C:
				h.flush(summary)
				h.verify()
				summary = Summary{World: h.World, Interval: interval}
			}
		}
	}()
}

func (h Handler) flush(s Summary) {
	if s.Frames == 0 {
		return
	}

	logs.WithTag("world", s.World).
		WithTag("world_uuid", s.WorldUUID).
		WithTag("time_interval", s.Interval).
		WithTag("frames", s.Frames).
		WithTag("last_frame", s.LastFrame).
		WithTag("sprite_count", s.SpriteCount).
		WithTag("collisions", s.Collisions).
		WithTag("max_collisions", s.MaxCollisions).
		WithTag("nodes_visited", s.NodesVisited).
		WithTag("subtrees_pruned", s.SubtreesPruned).
		WithTag("narrow_phase_tests", s.Tests).
		Info("frame summary")

	if h.OnSummary != nil {
		h.OnSummary(s)
	}
}

func (h Handler) verify() {
	if h.Verify == nil {
		return
	}

	if err := instrumentVerification(h.World, h.Verify); err != nil {
		logs.WithTag("world", h.World).
			Error(errors.New("collision index verification failed").Wrap(err))
	}
}
