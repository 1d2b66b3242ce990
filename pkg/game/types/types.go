package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Vec3 is a position or rotation in the client's coordinate space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Session is the per-connection state tracked by the registry.
// It is owned by the registry; other components reference sessions
// by ID and never mutate them.
type Session struct {
	ID             string          `json:"id"`
	Position       Vec3            `json:"position"`
	Rotation       Vec3            `json:"rotation"`
	Controls       json.RawMessage `json:"controls,omitempty"`
	Color          string          `json:"color"`
	Name           string          `json:"name,omitempty"`
	Address        string          `json:"address,omitempty"`
	ItemID         string          `json:"itemId,omitempty"`
	LastUpdate     int64           `json:"lastUpdate"`
	CollectedCoins []int           `json:"collectedCoins"`
}

// DisplayName returns the session's name, falling back to a short
// form of its ID for sessions that never sent one.
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if len(s.ID) > 6 {
		return s.ID[:6]
	}
	return s.ID
}

// RoomEntry is a session opted into the upcoming race, or spectating it.
type RoomEntry struct {
	SessionID   string `json:"id"`
	Color       string `json:"color"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	ItemID      string `json:"itemId,omitempty"`
	JoinedAt    int64  `json:"joinedAt"`
	Ready       bool   `json:"ready"`
	Participant bool   `json:"isParticipant"`
}

// Bet is an accepted stake on a roster participant. Immutable once created.
type Bet struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	TargetSessionID string          `json:"targetSessionId"`
	BettorAddress   string          `json:"bettorAddress"`
	BettorSessionID string          `json:"bettorSessionId"`
	ItemID          string          `json:"itemId"`
	TxRef           string          `json:"txRef,omitempty"`
	PlacedAt        int64           `json:"placedAt"`
}

// CoinClaim records the first session to collect a coin index.
type CoinClaim struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	ClaimedAt int64  `json:"claimedAt"`
}

// RaceResult is one participant's standing at race end.
type RaceResult struct {
	SessionID string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Color     string `json:"color"`
	CoinCount int    `json:"coinCount"`
	Coins     []int  `json:"coins"`
}
