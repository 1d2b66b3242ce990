package game

import (
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
)

// CoinLedger arbitrates coin collection: the first valid claim per
// coin index wins, later claims are no-ops. The game loop is the only
// writer, so check-then-set here is atomic by construction.
type CoinLedger struct {
	claims    map[int]types.CoinClaim
	coinCount int
}

// NewCoinLedger creates a ledger for a track with coinCount coins.
func NewCoinLedger(coinCount int) *CoinLedger {
	return &CoinLedger{
		claims:    make(map[int]types.CoinClaim),
		coinCount: coinCount,
	}
}

// Claim records the first claimant of a coin index. Returns false if
// the index is outside the track layout or already claimed.
func (c *CoinLedger) Claim(coinIndex int, session *types.Session, now time.Time) bool {
	if coinIndex < 0 || coinIndex >= c.coinCount {
		return false
	}
	if _, taken := c.claims[coinIndex]; taken {
		return false
	}
	c.claims[coinIndex] = types.CoinClaim{
		SessionID: session.ID,
		Name:      session.DisplayName(),
		ClaimedAt: now.UnixMilli(),
	}
	session.CollectedCoins = append(session.CollectedCoins, coinIndex)
	return true
}

// Snapshot returns a copy of the claim map.
func (c *CoinLedger) Snapshot() map[int]types.CoinClaim {
	snap := make(map[int]types.CoinClaim, len(c.claims))
	for idx, claim := range c.claims {
		snap[idx] = claim
	}
	return snap
}

// Clear wipes all claims for the next race cycle.
func (c *CoinLedger) Clear() {
	c.claims = make(map[int]types.CoinClaim)
}
