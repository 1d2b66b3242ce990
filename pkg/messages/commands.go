package messages

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/shopspring/decimal"
)

// Boundary validation for client command payloads. Handlers only ever
// see the validated command structs these produce.

// InitCommand carries a session's initial appearance.
type InitCommand struct {
	Color  string `json:"color,omitempty"`
	Name   string `json:"name,omitempty"`
	ItemID string `json:"itemId,omitempty"`
}

// ParseInit validates an init payload.
func ParseInit(payload json.RawMessage) (*InitCommand, error) {
	cmd := &InitCommand{}
	if err := json.Unmarshal(payload, cmd); err != nil {
		return nil, fmt.Errorf("invalid init payload: %v", err)
	}
	return cmd, nil
}

// MoveCommand is a validated movement update. Position is always set
// and finite; Rotation is nil when the client omitted it or sent
// something unusable.
type MoveCommand struct {
	Position types.Vec3
	Rotation *types.Vec3
	Color    string
	Controls json.RawMessage
}

type movePayload struct {
	Position json.RawMessage `json:"position"`
	Rotation json.RawMessage `json:"rotation"`
	Color    string          `json:"color"`
	Controls json.RawMessage `json:"controls"`
}

// ParseMove validates a move payload. All three position coordinates
// must be finite numbers or the whole command is rejected. A malformed
// rotation is dropped without failing the command, matching position
// being the only required field.
func ParseMove(payload json.RawMessage) (*MoveCommand, error) {
	raw := movePayload{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("invalid move payload: %v", err)
	}
	if len(raw.Position) == 0 {
		return nil, fmt.Errorf("move payload has no position")
	}
	pos, err := parseVec3(raw.Position)
	if err != nil {
		return nil, fmt.Errorf("invalid position: %v", err)
	}
	cmd := &MoveCommand{
		Position: pos,
		Color:    raw.Color,
		Controls: raw.Controls,
	}
	if len(raw.Rotation) > 0 {
		if rot, err := parseVec3(raw.Rotation); err == nil {
			cmd.Rotation = &rot
		}
	}
	return cmd, nil
}

type rawVec3 struct {
	X json.Number `json:"x"`
	Y json.Number `json:"y"`
	Z json.Number `json:"z"`
}

// parseVec3 decodes a vector, requiring every coordinate to be a
// finite JSON number. Strings, nulls, NaN and infinities are rejected.
func parseVec3(raw json.RawMessage) (types.Vec3, error) {
	rv := rawVec3{}
	if err := json.Unmarshal(raw, &rv); err != nil {
		return types.Vec3{}, err
	}
	v := types.Vec3{}
	for _, c := range []struct {
		name string
		num  json.Number
		dst  *float64
	}{
		{"x", rv.X, &v.X},
		{"y", rv.Y, &v.Y},
		{"z", rv.Z, &v.Z},
	} {
		f, err := strconv.ParseFloat(c.num.String(), 64)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("coordinate %s is not a number", c.name)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return types.Vec3{}, fmt.Errorf("coordinate %s is not finite", c.name)
		}
		*c.dst = f
	}
	return v, nil
}

type collectCoinPayload struct {
	CoinIndex json.Number `json:"coinIndex"`
}

// ParseCollectCoin validates a coin claim and returns the coin index.
func ParseCollectCoin(payload json.RawMessage) (int, error) {
	raw := collectCoinPayload{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return 0, fmt.Errorf("invalid collect-coin payload: %v", err)
	}
	idx, err := strconv.ParseInt(raw.CoinIndex.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("coinIndex is not an integer")
	}
	return int(idx), nil
}

// RegisterCommand joins the waiting room. Participant defaults to true;
// clients registering explicitly as bettors send isParticipant=false.
type RegisterCommand struct {
	Color       string
	Name        string
	Address     string
	ItemID      string
	Participant bool
}

type registerPayload struct {
	Color       string `json:"color"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ItemID      string `json:"itemId"`
	Participant *bool  `json:"isParticipant"`
}

// ParseRegister validates a register-for-race payload.
func ParseRegister(payload json.RawMessage) (*RegisterCommand, error) {
	raw := registerPayload{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("invalid register payload: %v", err)
	}
	cmd := &RegisterCommand{
		Color:       raw.Color,
		Name:        raw.Name,
		Address:     raw.Address,
		ItemID:      raw.ItemID,
		Participant: true,
	}
	if raw.Participant != nil {
		cmd.Participant = *raw.Participant
	}
	return cmd, nil
}

// SpectateCommand joins the waiting room as a spectator.
type SpectateCommand struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
}

// ParseSpectate validates a join-as-spectator payload.
func ParseSpectate(payload json.RawMessage) (*SpectateCommand, error) {
	cmd := &SpectateCommand{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return nil, fmt.Errorf("invalid spectate payload: %v", err)
		}
	}
	return cmd, nil
}

// PlaceBetCommand stakes an amount on a roster participant.
type PlaceBetCommand struct {
	Amount          decimal.Decimal `json:"amount"`
	TargetSessionID string          `json:"targetSessionId"`
	Address         string          `json:"address"`
	ItemID          string          `json:"itemId,omitempty"`
	TxRef           string          `json:"txRef,omitempty"`
}

// ParsePlaceBet validates a place-bet payload. Amount positivity and
// target/item resolution are ledger policy, not parsing.
func ParsePlaceBet(payload json.RawMessage) (*PlaceBetCommand, error) {
	cmd := &PlaceBetCommand{}
	if err := json.Unmarshal(payload, cmd); err != nil {
		return nil, fmt.Errorf("invalid bet payload: %v", err)
	}
	return cmd, nil
}
