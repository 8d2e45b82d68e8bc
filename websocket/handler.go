package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/net/websocket"
)

const (
	receiveChanSize = 8
)

// Handler represents a frame stream handler.
type Handler interface {
	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Sends the connection greeting to the client.
	SendHello(ctx context.Context, send Sender) error

	// Handles a ping request.
	HandlePing(ctx context.Context, send Sender, msg Msg) error

	// Sends a frame report to the client.
	HandleFrame(ctx context.Context, send Sender, msg Msg) error

	// Creates a message receiver used to receive incoming messages.
	Receiver() Receiver

	// Creates a message sender used to send messages.
	Sender() Sender

	// Closes the handler and releases its allocated resources.
	Close()

	// The time a client is idle before being disconnected. Zero disables
	// the idle timeout.
	IdleTimeout() time.Duration

	// The client id.
	GetClientID() string
}

// Handle streams the hub frame reports to the given connection until the
// client disconnects, the hub is closed or the context is done.
func Handle(ctx context.Context, conn *websocket.Conn, hub *Hub, h Handler) {
	handler := handler{
		Conn:    conn,
		Hub:     hub,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The hub frame reports are received from.
	Hub *Hub

	// The stream handler.
	Handler Handler

	receiveChan    chan Msg
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.Handler.HandleConnect(h.Conn)

	sub := h.Hub.Subscribe(h.Handler.GetClientID())
	defer h.Hub.Unsubscribe(sub)

	h.receiveChan = make(chan Msg, receiveChanSize)
	h.disconnectChan = make(chan error, 1)

	var wg sync.WaitGroup
	defer wg.Wait()

	receive := h.Handler.Receiver()
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx, receive)
	}()

	send := h.Handler.Sender()

	err := h.Handler.SendHello(ctx, send)
	if err != nil {
		err = errors.New("sending hello failed").Wrap(err)
	}

	idleTimeout := h.Handler.IdleTimeout()

	var idleTimer *time.Timer
	var idleChan <-chan time.Time
	if idleTimeout > 0 {
		idleTimer = time.NewTimer(idleTimeout)
		defer idleTimer.Stop()
		idleChan = idleTimer.C
	}

	for err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()

		case <-idleChan:
			err = errors.New("idle connection").WithTag("duration", idleTimeout)

		case report, ok := <-sub.Frames():
			if !ok {
				err = errors.New("frame stream closed").WithType(ErrTypeHubClosed)
				break
			}

			if ferr := h.Handler.HandleFrame(ctx, send, Msg{Type: MsgTypeFrame, Frame: &report}); ferr != nil {
				err = errors.New("sending frame failed").Wrap(ferr)
			}

		case msg := <-h.receiveChan:
			if idleTimer != nil {
				idleTimer.Stop()
				idleTimer.Reset(idleTimeout)
			}

			if msg.Type != MsgTypePing {
				continue
			}
			if perr := h.Handler.HandlePing(ctx, send, msg); perr != nil {
				err = errors.New("handling ping failed").Wrap(perr)
			}

		case err = <-h.disconnectChan:
		}
	}

	cancel()
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

func (h *handler) startReceiving(ctx context.Context, receive Receiver) {
	for {
		msg, _, err := receive()
		if errors.IsType(err, ErrTypeMsgDecoding) {
			continue
		}
		if err != nil {
			h.disconnect(errors.New("receiving message failed").Wrap(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case h.receiveChan <- msg:
		}
	}
}

func (h *handler) disconnect(err error) {
	select {
	case h.disconnectChan <- err:
	default:
	}
}
