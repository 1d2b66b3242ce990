package game

import (
	"testing"

	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetLedgerPlace(t *testing.T) {
	target := &types.RoomEntry{SessionID: "a", ItemID: "42", Participant: true}
	bareTarget := &types.RoomEntry{SessionID: "a", Participant: true}

	tests := []struct {
		name       string
		cmd        *messages.PlaceBetCommand
		target     *types.RoomEntry
		wantReason string
		wantItemID string
	}{
		{
			name:       "accepted with explicit item",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.NewFromInt(10), TargetSessionID: "a", ItemID: "7"},
			target:     target,
			wantItemID: "7",
		},
		{
			name:       "accepted inheriting target item",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.NewFromInt(10), TargetSessionID: "a"},
			target:     target,
			wantItemID: "42",
		},
		{
			name:       "zero amount",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.Zero, TargetSessionID: "a"},
			target:     target,
			wantReason: RejectInvalidAmount,
		},
		{
			name:       "negative amount",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.NewFromInt(-5), TargetSessionID: "a"},
			target:     target,
			wantReason: RejectInvalidAmount,
		},
		{
			name:       "no target",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.NewFromInt(10), TargetSessionID: "ghost"},
			target:     nil,
			wantReason: RejectTargetMissing,
		},
		{
			// Amount is checked before the target, so a bad amount on a
			// bad target reports the amount.
			name:       "bad amount wins over bad target",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.Zero, TargetSessionID: "ghost"},
			target:     nil,
			wantReason: RejectInvalidAmount,
		},
		{
			name:       "no item id anywhere",
			cmd:        &messages.PlaceBetCommand{Amount: decimal.NewFromInt(10), TargetSessionID: "a"},
			target:     bareTarget,
			wantReason: RejectNoItemID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewBetLedger()
			clock := newFakeClock()

			bet, reason := ledger.Place(tt.cmd, "bettor", tt.target, clock.Now())

			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, reason)
				assert.Nil(t, bet)
				assert.Empty(t, ledger.Bets())
				assert.True(t, ledger.Pool().IsZero())
				return
			}
			require.NotNil(t, bet)
			assert.NotEmpty(t, bet.ID)
			assert.Equal(t, tt.wantItemID, bet.ItemID)
			assert.Equal(t, "bettor", bet.BettorSessionID)
			assert.True(t, ledger.Pool().Equal(tt.cmd.Amount))
		})
	}
}

func TestBetLedgerPoolAccumulates(t *testing.T) {
	ledger := NewBetLedger()
	clock := newFakeClock()
	target := &types.RoomEntry{SessionID: "a", ItemID: "1", Participant: true}

	amounts := []string{"10", "0.5", "39.5"}
	for _, a := range amounts {
		amount, err := decimal.NewFromString(a)
		require.NoError(t, err)
		_, reason := ledger.Place(&messages.PlaceBetCommand{Amount: amount, TargetSessionID: "a"}, "b", target, clock.Now())
		require.Empty(t, reason)
	}

	assert.Len(t, ledger.Bets(), 3)
	assert.True(t, ledger.Pool().Equal(decimal.NewFromInt(50)))

	ledger.Clear()
	assert.Empty(t, ledger.Bets())
	assert.True(t, ledger.Pool().IsZero())
}

func TestPlaceBetOnSpectatorRejected(t *testing.T) {
	g, gw, clock := newTestGame(Config{})
	g.handleConnect("a", clock.Now())
	g.handleConnect("b", clock.Now())
	send(g, clock, "a", messages.TypeJoinAsSpectator, nil)
	gw.reset()

	send(g, clock, "b", messages.TypePlaceBet, map[string]interface{}{
		"amount": 10, "targetSessionId": "a", "address": "addr-b",
	})

	rejected := gw.ofType(messages.TypeBetRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "b", rejected[0].to)
	reason := messages.BetRejected{}
	decodePayload(t, rejected[0], &reason)
	assert.Equal(t, RejectTargetMissing, reason.Reason)
	assert.Empty(t, gw.ofType(messages.TypeBetUpdated))
}

func TestPlaceBetMalformedPayloadRejected(t *testing.T) {
	g, gw, clock := newTestGame(Config{})
	g.handleConnect("b", clock.Now())
	gw.reset()

	msg := &messages.Message{Type: messages.TypePlaceBet, Payload: []byte(`{"amount":`)}
	g.handleCommand(&messages.Inbound{SessionID: "b", Msg: msg}, clock.Now())

	rejected := gw.ofType(messages.TypeBetRejected)
	require.Len(t, rejected, 1)
	assert.Empty(t, g.bets.Bets())
}
