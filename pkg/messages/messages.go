package messages

import (
	"encoding/json"
	"fmt"
)

// Client command types
const (
	TypeInit             = "init"
	TypeMove             = "move"
	TypeCollectCoin      = "collect-coin"
	TypeRegisterForRace  = "register-for-race"
	TypeJoinAsSpectator  = "join-as-spectator"
	TypeLeaveRace        = "leave-race"
	TypeReady            = "ready"
	TypeForceStart       = "force-start"
	TypePlaceBet         = "place-bet"
	TypeRequestRaceState = "request-race-state"
)

// Server event types
const (
	TypeSessionList      = "session-list"
	TypeSessionJoined    = "session-joined"
	TypeSessionUpdated   = "session-updated"
	TypeSessionMoved     = "session-moved"
	TypeMoveConfirmed    = "move-confirmed"
	TypeSessionLeft      = "session-left"
	TypeCoinState        = "coin-state"
	TypeCoinClaimed      = "coin-claimed"
	TypeRoomUpdated      = "room-updated"
	TypeRoomStartingSoon = "room-starting-soon"
	TypeBetUpdated       = "bet-updated"
	TypeBetConfirmed     = "bet-confirmed"
	TypeBetRejected      = "bet-rejected"
	TypeRaceStarted      = "race-started"
	TypeRaceTime         = "race-time"
	TypeRaceEndingSoon   = "race-ending-soon"
	TypeRaceResults      = "race-results"
)

// Message is the wire envelope for both client commands and server events.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound pairs a client command with the session that sent it.
type Inbound struct {
	SessionID string
	Msg       *Message
}

// New builds a Message around a marshaled payload.
func New(msgType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", msgType, err)
	}
	return &Message{Type: msgType, Payload: b}, nil
}

// Serialize encodes a Message for the wire.
func Serialize(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return b, nil
}

// Deserialize decodes a Message from the wire.
func Deserialize(data []byte) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return m, nil
}
