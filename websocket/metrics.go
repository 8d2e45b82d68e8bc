package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel = "error_type"
	msgTypeLabel = "msg_type"
	worldLabel   = "world"
)

var (
	wsConnectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of connected stream clients.",
	}, []string{
		worldLabel,
	})

	wsReceivedMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_msgs",
		Help: "The number of messages received from WebSocket connections.",
	}, []string{
		worldLabel,
		msgTypeLabel,
	})

	wsReceivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_bytes",
		Help: "The number of bytes received from WebSocket connections.",
	}, []string{
		worldLabel,
		msgTypeLabel,
	})

	wsReceiveError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_receive_errors",
		Help: "The errors that occured while receiving a websocket message.",
	}, []string{
		worldLabel,
		errTypeLabel,
	})

	wsSentMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_msgs",
		Help: "The number of messages sent to WebSocket connections.",
	}, []string{
		worldLabel,
		msgTypeLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	}, []string{
		worldLabel,
		msgTypeLabel,
	})

	wsSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occured while sending a websocket message.",
	}, []string{
		worldLabel,
		errTypeLabel,
		msgTypeLabel,
	})

	wsMsgLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ws_msg_latency",
		Help: "The time to process a WebSocket msg.",
	}, []string{
		worldLabel,
		msgTypeLabel,
	})

	streamSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stream_subscribers",
		Help: "The number of frame stream subscribers.",
	}, []string{
		worldLabel,
	})

	streamQueuedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_queued_frames",
		Help: "The number of frame reports queued for subscribers.",
	}, []string{
		worldLabel,
	})

	streamDroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_dropped_frames",
		Help: "The number of frame reports dropped because a subscriber queue was full.",
	}, []string{
		worldLabel,
	})
)

func instrumentSubscribers(world string, n int) {
	streamSubscribers.
		With(prometheus.Labels{worldLabel: world}).
		Set(float64(n))
}

func instrumentPublish(world string, queued, dropped int) {
	labels := prometheus.Labels{worldLabel: world}
	streamQueuedFrames.With(labels).Add(float64(queued))
	streamDroppedFrames.With(labels).Add(float64(dropped))
}

func HandlerWithMetrics(h Handler, world string) Handler {
	return &handlerWithMetrics{
		Handler: h,
		world:   world,
	}
}

type handlerWithMetrics struct {
	Handler

	world string
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn) {
	wsConnectedClients.
		With(prometheus.Labels{worldLabel: h.world}).
		Inc()

	h.Handler.HandleConnect(conn)
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	wsConnectedClients.
		With(prometheus.Labels{worldLabel: h.world}).
		Dec()

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) HandlePing(ctx context.Context, send Sender, msg Msg) error {
	return h.measureLatency(msg, func() error {
		return h.Handler.HandlePing(ctx, send, msg)
	})
}

func (h *handlerWithMetrics) HandleFrame(ctx context.Context, send Sender, msg Msg) error {
	return h.measureLatency(msg, func() error {
		return h.Handler.HandleFrame(ctx, send, msg)
	})
}

func (h *handlerWithMetrics) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Msg, int, error) {
		msg, n, err := receive()
		if err != nil {
			wsReceiveError.
				With(prometheus.Labels{
					worldLabel:   h.world,
					errTypeLabel: errors.Type(err),
				}).
				Inc()
		} else {
			wsReceivedMsgs.
				With(prometheus.Labels{
					worldLabel:   h.world,
					msgTypeLabel: string(msg.Type),
				}).
				Inc()
		}

		if n != 0 {
			wsReceivedBytes.
				With(prometheus.Labels{
					worldLabel:   h.world,
					msgTypeLabel: string(msg.Type),
				}).
				Add(float64(n))
		}

		return msg, n, err
	}
}

func (h *handlerWithMetrics) Sender() Sender {
	sender := h.Handler.Sender()

	return func(msg Msg) (int, error) {
		msgType := string(msg.Type)

		n, err := sender(msg)
		if err != nil {
			wsSendError.
				With(prometheus.Labels{
					worldLabel:   h.world,
					msgTypeLabel: msgType,
					errTypeLabel: errors.Type(err),
				}).
				Inc()
		}

		if n != 0 {
			wsSentMsgs.
				With(prometheus.Labels{
					worldLabel:   h.world,
					msgTypeLabel: msgType,
				}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{
					worldLabel:   h.world,
					msgTypeLabel: msgType,
				}).
				Add(float64(n))
		}

		return n, err
	}
}

func (h *handlerWithMetrics) measureLatency(msg Msg, f func() error) error {
	start := time.Now()

	err := f()

	wsMsgLatency.With(prometheus.Labels{
		worldLabel:   h.world,
		msgTypeLabel: string(msg.Type),
	}).Observe(time.Since(start).Seconds())

	return err
}
