package game

import (
	"math"
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/racewire/pitlane/pkg/messages"
)

// Race is the active-race state machine. It holds the roster copied at
// handoff, the race timer anchor, and the last finalized results for
// late joiners.
type Race struct {
	active    bool
	startedAt time.Time
	roster    []*types.RoomEntry

	duration          time.Duration
	finalStretch      time.Duration
	broadcastInterval time.Duration

	announcedSoon bool
	lastBroadcast time.Time
	lastResults   *messages.RaceResults
}

// RaceTick is what the race timer wants done after a tick.
type RaceTick struct {
	// Finish means the timer expired and results should be finalized.
	Finish bool
	// EndingSoon means the one-shot final-stretch announcement is due.
	EndingSoon bool
	// Broadcast means a throttled race-time update is due.
	Broadcast bool
}

// NewRace creates an inactive race session.
func NewRace(cfg Config) *Race {
	return &Race{
		duration:          cfg.RaceDuration,
		finalStretch:      cfg.FinalStretch,
		broadcastInterval: cfg.BroadcastInterval,
	}
}

// Active reports whether a race is running.
func (r *Race) Active() bool {
	return r.active
}

// Activate starts the race timer with a copy of the participant
// roster. The copy keeps registration order, which breaks result ties.
func (r *Race) Activate(roster []*types.RoomEntry, now time.Time) {
	copied := make([]*types.RoomEntry, len(roster))
	for i, e := range roster {
		c := *e
		copied[i] = &c
	}
	r.roster = copied
	r.active = true
	r.startedAt = now
	r.announcedSoon = false
	r.lastBroadcast = now
}

// Roster returns the roster copied at handoff, in registration order.
func (r *Race) Roster() []*types.RoomEntry {
	return r.roster
}

// Duration returns the race length in whole seconds.
func (r *Race) Duration() int {
	return int(r.duration.Seconds())
}

// TimeLeft returns whole seconds remaining, recomputed from wall clock.
func (r *Race) TimeLeft(now time.Time) int {
	if !r.active {
		return 0
	}
	remaining := r.startedAt.Add(r.duration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// Finish deactivates the race and retains the finalized results for
// sessions that join before the next race starts.
func (r *Race) Finish(results *messages.RaceResults) {
	r.active = false
	r.lastResults = results
}

// LastResults returns the most recently finalized results, nil if no
// race has finished since boot.
func (r *Race) LastResults() *messages.RaceResults {
	return r.lastResults
}

// MarkBroadcast records that a race-time snapshot just went out.
func (r *Race) MarkBroadcast(now time.Time) {
	r.lastBroadcast = now
}

// Tick advances the race timer against the wall clock.
func (r *Race) Tick(now time.Time) RaceTick {
	if !r.active {
		return RaceTick{}
	}
	remaining := r.startedAt.Add(r.duration).Sub(now)
	if remaining <= 0 {
		return RaceTick{Finish: true}
	}
	t := RaceTick{}
	if remaining <= r.finalStretch {
		t.Broadcast = true
		if !r.announcedSoon {
			r.announcedSoon = true
			t.EndingSoon = true
		}
	} else if now.Sub(r.lastBroadcast) >= r.broadcastInterval {
		t.Broadcast = true
	}
	return t
}
