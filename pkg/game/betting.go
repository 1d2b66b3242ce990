package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/shopspring/decimal"
)

// Rejection reasons surfaced to the placing session.
const (
	RejectInvalidAmount = "invalid amount"
	RejectTargetMissing = "target not found"
	RejectNoItemID      = "no item id available"
)

// BetLedger records stake events against roster participants and
// accumulates the pool total. Bets are immutable once accepted and are
// cleared only when a race's results are finalized.
type BetLedger struct {
	bets []*types.Bet
	pool decimal.Decimal
}

// NewBetLedger creates an empty ledger.
func NewBetLedger() *BetLedger {
	return &BetLedger{pool: decimal.Zero}
}

// Place validates and records a bet. target is the roster entry the
// bet rides on, nil if the target session is not a current participant.
// Returns the accepted bet, or a rejection reason.
func (b *BetLedger) Place(cmd *messages.PlaceBetCommand, bettorSessionID string, target *types.RoomEntry, now time.Time) (*types.Bet, string) {
	if !cmd.Amount.IsPositive() {
		return nil, RejectInvalidAmount
	}
	if target == nil {
		return nil, RejectTargetMissing
	}
	itemID := cmd.ItemID
	if itemID == "" {
		itemID = target.ItemID
	}
	if itemID == "" {
		return nil, RejectNoItemID
	}

	bet := &types.Bet{
		ID:              uuid.NewString(),
		Amount:          cmd.Amount,
		TargetSessionID: target.SessionID,
		BettorAddress:   cmd.Address,
		BettorSessionID: bettorSessionID,
		ItemID:          itemID,
		TxRef:           cmd.TxRef,
		PlacedAt:        now.UnixMilli(),
	}
	b.bets = append(b.bets, bet)
	b.pool = b.pool.Add(cmd.Amount)
	return bet, ""
}

// Bets returns all accepted bets in placement order.
func (b *BetLedger) Bets() []*types.Bet {
	if b.bets == nil {
		return []*types.Bet{}
	}
	return b.bets
}

// Pool returns the running pool total.
func (b *BetLedger) Pool() decimal.Decimal {
	return b.pool
}

// Clear wipes bets and pool after results are finalized.
func (b *BetLedger) Clear() {
	b.bets = nil
	b.pool = decimal.Zero
}
