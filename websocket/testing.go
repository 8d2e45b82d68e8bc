package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// Creates a testing environment with a stream server publishing from the
// given hub. The returned function dials a new client.
func NewTestingEnv(t *testing.T, hub *Hub, newHandler func() Handler) (func(clientID string) *websocket.Conn, func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	dial, close := newTestingEnv(t, hub, newHandler)
	return dial, func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
		close()
	}
}

func newTestingEnv(t *testing.T, hub *Hub, newHandler func() Handler) (func(string) *websocket.Conn, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(ctx, conn, hub, handler)
		},
	})

	var conns []*websocket.Conn

	dial := func(clientID string) *websocket.Conn {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://"),
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		if clientID != "" {
			config.Header.Set(HeaderClientID, clientID)
		}

		conn, err := websocket.DialConfig(config)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}

		conns = append(conns, conn)
		return conn
	}

	return dial, func() {
		for _, c := range conns {
			c.Close()
		}
		cancel()
		server.Close()
	}
}

// ReceiveUntil reads messages from conn until one of the given type is
// received or the timeout expires.
func ReceiveUntil(conn *websocket.Conn, msgType MsgType, timeout time.Duration) (Msg, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	defer conn.SetReadDeadline(time.Time{})

	for {
		msg, _, err := Receive(conn)
		if errors.IsType(err, ErrTypeMsgDecoding) {
			continue
		}
		if err != nil {
			return Msg{}, err
		}
		if msg.Type == msgType {
			return msg, nil
		}
	}
}

func newTestHandler() func() Handler {
	return func() Handler {
		var h Handler = &StreamHandler{
			WorldUUID:         "test-world-uuid",
			ClientIdleTimeout: time.Minute,
		}

		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "test")
		return h
	}
}
