// Package wire encodes the payloads exchanged with the server peer.
//
// The connect reply is not one object: the server answers on the reply
// queue with three frames in a fixed order (accepted flag, message
// history, roster), and a rejecting server still sends all three with
// empty placeholders. Each frame is decoded on its own.
package wire

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"chat-relay/domain"
	"chat-relay/errors"
)

// Well-known destinations shared with the server peer: one point-to-point
// control queue for connect/disconnect requests and two fanout exchanges
// for the broadcast streams.
const (
	ControlQueue     = "connections_disconnections"
	MessagesExchange = "messages"
	PresenceExchange = "connections_disconnections"
)

// ReplyArity is the number of frames a connect reply always carries:
// accepted flag, history, roster.
const ReplyArity = 3

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(body []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDecode, err)
	}
	return nil
}

func EncodeMessage(m domain.Message) ([]byte, error) { return encode(m) }

func DecodeMessage(body []byte) (domain.Message, error) {
	var m domain.Message
	err := decode(body, &m)
	return m, err
}

func EncodePresence(p domain.Presence) ([]byte, error) { return encode(p) }

func DecodePresence(body []byte) (domain.Presence, error) {
	var p domain.Presence
	err := decode(body, &p)
	return p, err
}

// Reply frame codecs, in wire order.

func EncodeAccepted(accepted bool) ([]byte, error) { return encode(accepted) }

func DecodeAccepted(body []byte) (bool, error) {
	var accepted bool
	err := decode(body, &accepted)
	return accepted, err
}

func EncodeHistory(history []domain.Message) ([]byte, error) { return encode(history) }

func DecodeHistory(body []byte) ([]domain.Message, error) {
	var history []domain.Message
	err := decode(body, &history)
	return history, err
}

func EncodeRoster(names []string) ([]byte, error) { return encode(names) }

func DecodeRoster(body []byte) ([]string, error) {
	var names []string
	err := decode(body, &names)
	return names, err
}
