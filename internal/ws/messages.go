package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Inbound message kinds
const (
	TypeJoinRoom = "JOIN_ROOM"
	TypeFlipCard = "FLIP_CARD"
	TypeEndTurn  = "END_TURN"
)

// Envelope is the frame shape in both directions
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Inbound is the closed set of client messages. Adding a kind means
// adding a Visitor method, so every dispatcher has to handle it.
type Inbound interface {
	Accept(v Visitor)
	inbound()
}

// Visitor handles each inbound kind
type Visitor interface {
	VisitJoinRoom(JoinRoom)
	VisitFlipCard(FlipCard)
	VisitEndTurn(EndTurn)
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type FlipCard struct {
	CardIndex int `json:"cardIndex"`
}

type EndTurn struct{}

func (m JoinRoom) Accept(v Visitor) { v.VisitJoinRoom(m) }
func (m FlipCard) Accept(v Visitor) { v.VisitFlipCard(m) }
func (m EndTurn) Accept(v Visitor)  { v.VisitEndTurn(m) }

func (JoinRoom) inbound() {}
func (FlipCard) inbound() {}
func (EndTurn) inbound()  {}

// DecodeInbound parses one client frame
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.New("Invalid message format")
	}

	switch env.Type {
	case TypeJoinRoom:
		var m JoinRoom
		if err := decodeData(env.Data, &m); err != nil || m.RoomID == "" {
			return nil, errors.New("roomId is required")
		}
		return m, nil

	case TypeFlipCard:
		var data struct {
			CardIndex *int `json:"cardIndex"`
		}
		if err := decodeData(env.Data, &data); err != nil || data.CardIndex == nil {
			return nil, errors.New("cardIndex is required")
		}
		return FlipCard{CardIndex: *data.CardIndex}, nil

	case TypeEndTurn:
		return EndTurn{}, nil

	default:
		return nil, fmt.Errorf("Unknown message type: %s", env.Type)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

// NewEnvelope builds an outbound frame with data encoded in place
func NewEnvelope(kind string, data any, now time.Time) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Type: kind, Data: raw, Timestamp: now})
}
