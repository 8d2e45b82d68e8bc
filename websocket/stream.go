package websocket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// HeaderClientID is the request header a client can identify itself with.
// Clients without it get a random UUID.
const HeaderClientID = "X-Client-ID"

// StreamHandler sends frame reports as they are published.
type StreamHandler struct {
	// The UUID of the streamed world.
	WorldUUID string

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	conn     *websocket.Conn
	clientID string
}

func (h *StreamHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn

	if req := conn.Request(); req != nil {
		h.clientID = req.Header.Get(HeaderClientID)
	}
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}
}

func (h *StreamHandler) HandleDisconnect(_ error) {
}

func (h *StreamHandler) SendHello(ctx context.Context, send Sender) error {
	_, err := send(Msg{
		Type:      MsgTypeHello,
		ClientID:  h.clientID,
		WorldUUID: h.WorldUUID,
	})
	return err
}

func (h *StreamHandler) HandlePing(ctx context.Context, send Sender, msg Msg) error {
	_, err := send(Msg{
		Type:      MsgTypePong,
		RequestID: msg.RequestID,
	})
	return err
}

func (h *StreamHandler) HandleFrame(ctx context.Context, send Sender, msg Msg) error {
	_, err := send(msg)
	return err
}

func (h *StreamHandler) Receiver() Receiver {
	return func() (Msg, int, error) {
		return Receive(h.conn)
	}
}

func (h *StreamHandler) Sender() Sender {
	return func(msg Msg) (int, error) {
		return Send(h.conn, msg)
	}
}

func (h *StreamHandler) Close() {
}

func (h *StreamHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *StreamHandler) GetClientID() string {
	return h.clientID
}

// StreamOptions configures the handlers created by HandleStream.
type StreamOptions struct {
	ClientIdleTimeout  time.Duration
	LogSummaryInterval time.Duration
}

// HandleStream returns a WebSocket handler streaming the hub frame reports
// with logs and metrics.
func HandleStream(ctx context.Context, hub *Hub, opts StreamOptions) websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		var h Handler = &StreamHandler{
			WorldUUID:         hub.WorldUUID,
			ClientIdleTimeout: opts.ClientIdleTimeout,
		}
		h = HandlerWithLogs(h, opts.LogSummaryInterval)
		h = HandlerWithMetrics(h, hub.World)
		defer h.Close()

		Handle(ctx, conn, hub, h)
	}
}
