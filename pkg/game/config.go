package game

import "time"

const (
	// DefaultWaitingRoomDuration is the lobby countdown started by the
	// first participant registration.
	DefaultWaitingRoomDuration = 5 * time.Minute
	// DefaultRaceDuration is the length of an active race.
	DefaultRaceDuration = 60 * time.Second
	// DefaultBroadcastInterval throttles countdown broadcasts outside
	// the final stretch.
	DefaultBroadcastInterval = 5 * time.Second
	// DefaultFinalStretch is the window in which countdowns broadcast
	// every tick and the one-shot "soon" events fire.
	DefaultFinalStretch = 10 * time.Second
	// DefaultResetDelay is how long the room lingers in Starting before
	// clearing back to Idle.
	DefaultResetDelay = 5 * time.Second
	// DefaultTickInterval is the game loop cadence.
	DefaultTickInterval = time.Second
	// DefaultPositionLogInterval is how often connected positions are
	// logged for debugging.
	DefaultPositionLogInterval = 5 * time.Second
	// DefaultCoinCount is the number of coins laid out on the track.
	DefaultCoinCount = 20
)

// Config holds the tunable durations and track layout of the session
// manager. Zero fields are replaced with defaults.
type Config struct {
	WaitingRoomDuration time.Duration
	RaceDuration        time.Duration
	BroadcastInterval   time.Duration
	FinalStretch        time.Duration
	ResetDelay          time.Duration
	TickInterval        time.Duration
	PositionLogInterval time.Duration
	CoinCount           int
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.WaitingRoomDuration <= 0 {
		c.WaitingRoomDuration = DefaultWaitingRoomDuration
	}
	if c.RaceDuration <= 0 {
		c.RaceDuration = DefaultRaceDuration
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = DefaultBroadcastInterval
	}
	if c.FinalStretch <= 0 {
		c.FinalStretch = DefaultFinalStretch
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = DefaultResetDelay
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.PositionLogInterval <= 0 {
		c.PositionLogInterval = DefaultPositionLogInterval
	}
	if c.CoinCount <= 0 {
		c.CoinCount = DefaultCoinCount
	}
	return c
}
