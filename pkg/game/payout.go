package game

import (
	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/shopspring/decimal"
)

// ComputePayouts splits the pool among bettors whose target finished
// among the winners, proportionally to their stake within the winning
// stakes. It is a pure function over {bets, pool, winners}; executing
// the transfers is the escrow operator's job, outside this core.
func ComputePayouts(bets []*types.Bet, pool decimal.Decimal, winners []string) map[string]decimal.Decimal {
	payouts := make(map[string]decimal.Decimal)
	if pool.Sign() <= 0 || len(bets) == 0 || len(winners) == 0 {
		return payouts
	}

	winning := make(map[string]bool, len(winners))
	for _, id := range winners {
		winning[id] = true
	}

	// Winning stake per bettor address, and the total winning stake.
	stakes := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, bet := range bets {
		if !winning[bet.TargetSessionID] {
			continue
		}
		stakes[bet.BettorAddress] = stakes[bet.BettorAddress].Add(bet.Amount)
		total = total.Add(bet.Amount)
	}
	if total.Sign() <= 0 {
		return payouts
	}

	for addr, stake := range stakes {
		payouts[addr] = pool.Mul(stake).Div(total)
	}
	return payouts
}
