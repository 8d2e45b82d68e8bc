package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/aukilabs/collide/models"
)

const (
	defaultQueueSize = 16
)

// Hub fans frame reports out to stream subscribers. Each subscriber has a
// bounded queue; reports published to a full queue are dropped for that
// subscriber so a slow client never blocks the frame loop.
type Hub struct {
	// The name of the world the reports come from. Used as metrics label.
	World string

	// The UUID of the world, sent to clients on connection.
	WorldUUID string

	// The number of reports queued per subscriber.
	QueueSize int

	mutex  sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

type Subscription struct {
	ClientID string

	frames  chan models.FrameReport
	dropped atomic.Int64
	sent    atomic.Int64
}

// Frames returns the channel the subscriber reports are delivered to. It is
// closed when the subscription ends.
func (s *Subscription) Frames() <-chan models.FrameReport {
	return s.frames
}

// Dropped returns the number of reports dropped because the queue was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Delivered returns the number of reports queued for the subscriber.
func (s *Subscription) Delivered() int64 {
	return s.sent.Load()
}

// Subscribe registers a subscriber. Subscribing with the id of a live
// subscriber replaces it.
func (h *Hub) Subscribe(clientID string) *Subscription {
	queueSize := h.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	sub := &Subscription{
		ClientID: clientID,
		frames:   make(chan models.FrameReport, queueSize),
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		close(sub.frames)
		return sub
	}

	if h.subs == nil {
		h.subs = make(map[string]*Subscription)
	}
	if old, ok := h.subs[clientID]; ok {
		close(old.frames)
	}
	h.subs[clientID] = sub
	instrumentSubscribers(h.World, len(h.subs))
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.subs[sub.ClientID] != sub {
		return
	}
	delete(h.subs, sub.ClientID)
	close(sub.frames)
	instrumentSubscribers(h.World, len(h.subs))
}

// Publish queues the report for every subscriber and returns the number of
// subscribers it was dropped for.
func (h *Hub) Publish(r models.FrameReport) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	dropped := 0
	for _, sub := range h.subs {
		select {
		case sub.frames <- r:
			sub.sent.Add(1)

		default:
			sub.dropped.Add(1)
			dropped++
		}
	}

	instrumentPublish(h.World, len(h.subs)-dropped, dropped)
	return dropped
}

func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are returned closed.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, sub := range h.subs {
		close(sub.frames)
		delete(h.subs, id)
	}
	instrumentSubscribers(h.World, 0)
}
