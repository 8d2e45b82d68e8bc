package websocket

import (
	"github.com/aukilabs/collide/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

type MsgType string

const (
	MsgTypeHello MsgType = "hello"
	MsgTypeFrame MsgType = "frame"
	MsgTypePing  MsgType = "ping"
	MsgTypePong  MsgType = "pong"
)

// Msg is a JSON stream message.
type Msg struct {
	Type      MsgType             `json:"type"`
	RequestID uint32              `json:"request_id,omitempty"`
	ClientID  string              `json:"client_id,omitempty"`
	WorldUUID string              `json:"world_uuid,omitempty"`
	Frame     *models.FrameReport `json:"frame,omitempty"`
}

// Receiver receives a message and returns the number of bytes read.
type Receiver func() (Msg, int, error)

// Sender sends a message and returns the number of bytes written.
type Sender func(Msg) (int, error)

// Send writes msg as a JSON text frame.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return 0, errors.New("encoding message failed").
			WithType(ErrTypeMsgEncoding).
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return 0, errors.New("writing message failed").Wrap(err)
	}
	return len(b), nil
}

// Receive reads a JSON text frame.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var b []byte
	if err := websocket.Message.Receive(conn, &b); err != nil {
		return Msg{}, 0, err
	}

	var msg Msg
	if err := json.Unmarshal(b, &msg); err != nil {
		return Msg{}, len(b), errors.New("decoding message failed").
			WithType(ErrTypeMsgDecoding).
			Wrap(err)
	}
	return msg, len(b), nil
}

const (
	ErrTypeMsgEncoding = "msg_encoding_error"
	ErrTypeMsgDecoding = "msg_decoding_error"
	ErrTypeHubClosed   = "hub_closed"
)
