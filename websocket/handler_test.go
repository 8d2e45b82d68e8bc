package websocket

import (
	"testing"
	"time"

	"github.com/aukilabs/collide/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const testTimeout = time.Second * 5

func TestHandlerSendHello(t *testing.T) {
	var hub Hub
	dial, close := NewTestingEnv(t, &hub, newTestHandler())
	defer close()

	t.Run("with client id", func(t *testing.T) {
		msg, err := ReceiveUntil(dial("client-a"), MsgTypeHello, testTimeout)
		require.NoError(t, err)
		require.Equal(t, "client-a", msg.ClientID)
		require.Equal(t, "test-world-uuid", msg.WorldUUID)
	})

	t.Run("without client id", func(t *testing.T) {
		msg, err := ReceiveUntil(dial(""), MsgTypeHello, testTimeout)
		require.NoError(t, err)
		require.NotEmpty(t, msg.ClientID)
	})
}

func TestHandlerHandleFrame(t *testing.T) {
	var hub Hub
	dial, close := NewTestingEnv(t, &hub, newTestHandler())
	defer close()

	clientA := dial("client-a")
	clientB := dial("client-b")

	_, err := ReceiveUntil(clientA, MsgTypeHello, testTimeout)
	require.NoError(t, err)
	_, err = ReceiveUntil(clientB, MsgTypeHello, testTimeout)
	require.NoError(t, err)

	hub.Publish(models.FrameReport{
		Frame:       7,
		SpriteCount: 2,
		Collisions: []models.Collision{
			{A: models.ID{Slot: 0, Generation: 1}, B: models.ID{Slot: 1, Generation: 1}},
		},
	})

	for _, conn := range []*websocket.Conn{clientA, clientB} {
		msg, err := ReceiveUntil(conn, MsgTypeFrame, testTimeout)
		require.NoError(t, err)
		require.NotNil(t, msg.Frame)
		require.Equal(t, uint64(7), msg.Frame.Frame)
		require.Equal(t, 2, msg.Frame.SpriteCount)
		require.Len(t, msg.Frame.Collisions, 1)
	}
}

func TestHandlerHandlePing(t *testing.T) {
	var hub Hub
	dial, close := NewTestingEnv(t, &hub, newTestHandler())
	defer close()

	conn := dial("client-a")
	_, err := ReceiveUntil(conn, MsgTypeHello, testTimeout)
	require.NoError(t, err)

	_, err = Send(conn, Msg{Type: MsgTypePing, RequestID: 3})
	require.NoError(t, err)

	msg, err := ReceiveUntil(conn, MsgTypePong, testTimeout)
	require.NoError(t, err)
	require.Equal(t, uint32(3), msg.RequestID)
}

func TestHandlerDisconnect(t *testing.T) {
	t.Run("client close unsubscribes", func(t *testing.T) {
		var hub Hub
		dial, close := NewTestingEnv(t, &hub, newTestHandler())
		defer close()

		conn := dial("client-a")
		_, err := ReceiveUntil(conn, MsgTypeHello, testTimeout)
		require.NoError(t, err)
		require.Equal(t, 1, hub.Len())

		conn.Close()
		require.Eventually(t, func() bool {
			return hub.Len() == 0
		}, testTimeout, time.Millisecond*10)
	})

	t.Run("hub close disconnects clients", func(t *testing.T) {
		var hub Hub
		dial, close := NewTestingEnv(t, &hub, newTestHandler())
		defer close()

		conn := dial("client-a")
		_, err := ReceiveUntil(conn, MsgTypeHello, testTimeout)
		require.NoError(t, err)

		hub.Close()

		_, err = ReceiveUntil(conn, MsgTypeFrame, testTimeout)
		require.Error(t, err)
	})
}

func newIdleTestHandler(idleTimeout time.Duration) func() Handler {
	return func() Handler {
		var h Handler = &StreamHandler{
			WorldUUID:         "test-world-uuid",
			ClientIdleTimeout: idleTimeout,
		}
		return HandlerWithLogs(h, time.Second)
	}
}

func TestHandlerIdleTimeout(t *testing.T) {
	idleTimeout := time.Millisecond * 300

	t.Run("active client stays connected", func(t *testing.T) {
		var hub Hub
		dial, close := NewTestingEnv(t, &hub, newIdleTestHandler(idleTimeout))
		defer close()

		conn := dial("client-a")
		_, err := ReceiveUntil(conn, MsgTypeHello, testTimeout)
		require.NoError(t, err)

		start := time.Now()
		for i := uint32(1); time.Since(start) < idleTimeout*3; i++ {
			_, err = Send(conn, Msg{Type: MsgTypePing, RequestID: i})
			require.NoError(t, err)

			msg, err := ReceiveUntil(conn, MsgTypePong, testTimeout)
			require.NoError(t, err, "pong %d after %s", i, time.Since(start))
			require.Equal(t, i, msg.RequestID)

			time.Sleep(idleTimeout / 3)
		}
		require.Equal(t, 1, hub.Len())
	})

	t.Run("silent client is disconnected", func(t *testing.T) {
		var hub Hub
		dial, close := NewTestingEnv(t, &hub, newIdleTestHandler(idleTimeout))
		defer close()

		conn := dial("client-a")
		_, err := ReceiveUntil(conn, MsgTypeHello, testTimeout)
		require.NoError(t, err)

		_, err = ReceiveUntil(conn, MsgTypePong, testTimeout)
		require.Error(t, err)
		require.Eventually(t, func() bool {
			return hub.Len() == 0
		}, testTimeout, time.Millisecond*10)
	})
}
