package game

import (
	"math"
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
)

// RoomState is the waiting room lifecycle state.
type RoomState int

const (
	// RoomIdle means no countdown is running.
	RoomIdle RoomState = iota
	// RoomCounting means the countdown is running and the roster is
	// accepting entries.
	RoomCounting
	// RoomStarting means the race has been handed off and the room is
	// waiting out its reset delay.
	RoomStarting
)

// WaitingRoom is the pre-race lobby state machine. It owns the
// participant roster, the spectator list, and the countdown anchor.
// All mutation happens on the game loop goroutine.
type WaitingRoom struct {
	state      RoomState
	roster     []*types.RoomEntry
	spectators []*types.RoomEntry

	duration          time.Duration
	finalStretch      time.Duration
	broadcastInterval time.Duration
	resetDelay        time.Duration

	countdownStart time.Time
	startingAt     time.Time
	announcedSoon  bool
	lastBroadcast  time.Time
}

// RoomTick is what the countdown wants done after a timer tick.
type RoomTick struct {
	// Start means the countdown expired and the Starting transition
	// should run.
	Start bool
	// StartingSoon means the one-shot final-stretch announcement is due.
	StartingSoon bool
	// Broadcast means a throttled room-updated is due.
	Broadcast bool
	// Reset means the post-start delay elapsed and the room should clear.
	Reset bool
}

// NewWaitingRoom creates an idle waiting room.
func NewWaitingRoom(cfg Config) *WaitingRoom {
	return &WaitingRoom{
		duration:          cfg.WaitingRoomDuration,
		finalStretch:      cfg.FinalStretch,
		broadcastInterval: cfg.BroadcastInterval,
		resetDelay:        cfg.ResetDelay,
	}
}

// State returns the current lifecycle state.
func (wr *WaitingRoom) State() RoomState {
	return wr.state
}

// Starting reports whether the start signal has fired for this cycle.
func (wr *WaitingRoom) Starting() bool {
	return wr.state == RoomStarting
}

// Register upserts an entry. A participant registration removes any
// spectator entry for the same session (promotion keeps bets placed on
// the session intact, they are keyed by session id), and vice versa,
// so a session is never on both lists. The first participant to
// register while the room is idle starts the countdown.
func (wr *WaitingRoom) Register(entry *types.RoomEntry, now time.Time) {
	if entry.Participant {
		wr.spectators = removeEntry(wr.spectators, entry.SessionID)
		wr.roster = upsertEntry(wr.roster, entry)
	} else {
		wr.roster = removeEntry(wr.roster, entry.SessionID)
		wr.spectators = upsertEntry(wr.spectators, entry)
	}

	if wr.state == RoomIdle && len(wr.roster) > 0 {
		wr.state = RoomCounting
		wr.countdownStart = now
		wr.announcedSoon = false
	}
}

// upsertEntry updates an existing entry in place, preserving its ready
// flag and join timestamp, or appends a new one.
func upsertEntry(entries []*types.RoomEntry, entry *types.RoomEntry) []*types.RoomEntry {
	for _, e := range entries {
		if e.SessionID == entry.SessionID {
			if entry.Color != "" {
				e.Color = entry.Color
			}
			if entry.Name != "" {
				e.Name = entry.Name
			}
			if entry.Address != "" {
				e.Address = entry.Address
			}
			if entry.ItemID != "" {
				e.ItemID = entry.ItemID
			}
			e.Participant = entry.Participant
			return entries
		}
	}
	return append(entries, entry)
}

func removeEntry(entries []*types.RoomEntry, sessionID string) []*types.RoomEntry {
	for i, e := range entries {
		if e.SessionID == sessionID {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// Leave removes a session from the roster and spectator list. Returns
// whether anything changed.
func (wr *WaitingRoom) Leave(sessionID string) bool {
	before := len(wr.roster) + len(wr.spectators)
	wr.roster = removeEntry(wr.roster, sessionID)
	wr.spectators = removeEntry(wr.spectators, sessionID)
	return len(wr.roster)+len(wr.spectators) != before
}

// Ready sets a participant's ready flag. Returns whether the flag changed.
func (wr *WaitingRoom) Ready(sessionID string) bool {
	for _, e := range wr.roster {
		if e.SessionID == sessionID {
			if e.Ready {
				return false
			}
			e.Ready = true
			return true
		}
	}
	return false
}

// AllReady reports whether every registered participant is ready.
// An empty roster is never "all ready".
func (wr *WaitingRoom) AllReady() bool {
	if len(wr.roster) == 0 {
		return false
	}
	for _, e := range wr.roster {
		if !e.Ready {
			return false
		}
	}
	return true
}

// FindParticipant returns the roster entry for a session id, or nil.
// Spectators are not participants.
func (wr *WaitingRoom) FindParticipant(sessionID string) *types.RoomEntry {
	for _, e := range wr.roster {
		if e.SessionID == sessionID {
			return e
		}
	}
	return nil
}

// Participants returns the roster in registration order.
func (wr *WaitingRoom) Participants() []*types.RoomEntry {
	return wr.roster
}

// Entries returns roster then spectators, for the room-updated snapshot.
func (wr *WaitingRoom) Entries() []*types.RoomEntry {
	entries := make([]*types.RoomEntry, 0, len(wr.roster)+len(wr.spectators))
	entries = append(entries, wr.roster...)
	entries = append(entries, wr.spectators...)
	return entries
}

// TimeLeft returns whole seconds remaining on the countdown, recomputed
// from wall clock so a drifting timer self-corrects.
func (wr *WaitingRoom) TimeLeft(now time.Time) int {
	switch wr.state {
	case RoomCounting:
		remaining := wr.countdownStart.Add(wr.duration).Sub(now)
		if remaining < 0 {
			return 0
		}
		return int(math.Ceil(remaining.Seconds()))
	case RoomStarting:
		return 0
	default:
		return int(wr.duration.Seconds())
	}
}

// EnterStarting latches the Starting state and marks every participant
// ready. Idempotent: a second expiry tick or a late ready cannot
// re-trigger the start.
func (wr *WaitingRoom) EnterStarting(now time.Time) bool {
	if wr.state == RoomStarting {
		return false
	}
	wr.state = RoomStarting
	wr.startingAt = now
	for _, e := range wr.roster {
		e.Ready = true
	}
	return true
}

// Reset clears the roster, spectators and countdown back to Idle.
// Bets are deliberately untouched; they live until race results are
// finalized.
func (wr *WaitingRoom) Reset() {
	wr.state = RoomIdle
	wr.roster = nil
	wr.spectators = nil
	wr.countdownStart = time.Time{}
	wr.startingAt = time.Time{}
	wr.announcedSoon = false
}

// MarkBroadcast records that a room snapshot just went out, for
// broadcast throttling.
func (wr *WaitingRoom) MarkBroadcast(now time.Time) {
	wr.lastBroadcast = now
}

// Tick advances the countdown against the wall clock.
func (wr *WaitingRoom) Tick(now time.Time) RoomTick {
	switch wr.state {
	case RoomCounting:
		remaining := wr.countdownStart.Add(wr.duration).Sub(now)
		if remaining <= 0 {
			return RoomTick{Start: true}
		}
		t := RoomTick{}
		if remaining <= wr.finalStretch {
			// Final stretch: broadcast every tick for responsiveness.
			t.Broadcast = true
			if !wr.announcedSoon {
				wr.announcedSoon = true
				t.StartingSoon = true
			}
		} else if now.Sub(wr.lastBroadcast) >= wr.broadcastInterval {
			t.Broadcast = true
		}
		return t
	case RoomStarting:
		if now.Sub(wr.startingAt) >= wr.resetDelay {
			return RoomTick{Reset: true}
		}
	}
	return RoomTick{}
}
