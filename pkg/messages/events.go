package messages

import (
	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/shopspring/decimal"
)

// Server event payloads.

// SessionList is the full registry snapshot sent on connect.
type SessionList struct {
	Sessions map[string]*types.Session `json:"sessions"`
}

// MoveConfirmed echoes an applied movement back to its sender.
type MoveConfirmed struct {
	ID       string     `json:"id"`
	Position types.Vec3 `json:"position"`
}

// SessionLeft announces a disconnected session.
type SessionLeft struct {
	ID string `json:"id"`
}

// CoinState is the full claim map, keyed by coin index.
type CoinState struct {
	Claims map[int]types.CoinClaim `json:"claims"`
}

// Collector identifies the session that claimed a coin.
type Collector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CoinClaimed announces an accepted coin claim together with the
// full claim map so clients never drift.
type CoinClaimed struct {
	CoinIndex int                     `json:"coinIndex"`
	Collector Collector               `json:"collector"`
	Claims    map[int]types.CoinClaim `json:"claims"`
}

// RoomUpdated is the waiting room snapshot: full roster plus
// spectators, seconds left on the countdown, and the starting flag.
type RoomUpdated struct {
	Players  []*types.RoomEntry `json:"players"`
	TimeLeft int                `json:"timeLeft"`
	Starting bool               `json:"starting"`
}

// RoomStartingSoon fires once when the countdown reaches its final stretch.
type RoomStartingSoon struct {
	TimeLeft int `json:"timeLeft"`
}

// BetUpdated is the betting snapshot: all accepted bets and the pool total.
type BetUpdated struct {
	Bets []*types.Bet    `json:"bets"`
	Pool decimal.Decimal `json:"pool"`
}

// BetConfirmed acknowledges an accepted bet to its placer.
type BetConfirmed struct {
	Bet *types.Bet `json:"bet"`
}

// BetRejected tells the placer why a bet was refused.
type BetRejected struct {
	Reason string `json:"reason"`
}

// RaceStarted announces the handoff from waiting room to race.
type RaceStarted struct {
	Players  []*types.RoomEntry `json:"players"`
	Duration int                `json:"duration"`
}

// RaceTime is the race countdown snapshot in seconds.
type RaceTime struct {
	TimeLeft int `json:"timeLeft"`
	Duration int `json:"duration"`
}

// RaceEndingSoon fires once when the race reaches its final stretch.
type RaceEndingSoon struct {
	TimeLeft int `json:"timeLeft"`
}

// RaceResults is the final standings, the winners (session ids, best
// first), and the bet state the payout runs against.
type RaceResults struct {
	Results []*types.RaceResult `json:"results"`
	Winners []string            `json:"winners"`
	Bets    []*types.Bet        `json:"bets"`
	Pool    decimal.Decimal     `json:"pool"`
}
