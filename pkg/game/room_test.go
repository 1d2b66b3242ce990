package game

import (
	"testing"
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoomConfig() Config {
	return Config{
		WaitingRoomDuration: 60 * time.Second,
		FinalStretch:        10 * time.Second,
		BroadcastInterval:   5 * time.Second,
		ResetDelay:          5 * time.Second,
	}.withDefaults()
}

func entry(sessionID string, participant bool) *types.RoomEntry {
	return &types.RoomEntry{SessionID: sessionID, Participant: participant}
}

func TestRoomCountdownStartsWithFirstParticipant(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()

	// Spectators never start the countdown.
	wr.Register(entry("spec", false), clock.Now())
	assert.Equal(t, RoomIdle, wr.State())
	assert.Equal(t, 60, wr.TimeLeft(clock.Now()))

	wr.Register(entry("a", true), clock.Now())
	assert.Equal(t, RoomCounting, wr.State())
	assert.Equal(t, 60, wr.TimeLeft(clock.Now()))

	// A second registration does not re-anchor the countdown.
	clock.Advance(10 * time.Second)
	wr.Register(entry("b", true), clock.Now())
	assert.Equal(t, 50, wr.TimeLeft(clock.Now()))
}

func TestRoomTimeLeftRoundsUp(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()
	wr.Register(entry("a", true), clock.Now())

	clock.Advance(7*time.Second + 500*time.Millisecond)
	assert.Equal(t, 53, wr.TimeLeft(clock.Now()))
}

func TestRoomUpsertPreservesReadyAndJoinTime(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()

	first := &types.RoomEntry{SessionID: "a", Color: "#00ff00", JoinedAt: clock.Now().UnixMilli(), Participant: true}
	wr.Register(first, clock.Now())
	require.True(t, wr.Ready("a"))

	clock.Advance(5 * time.Second)
	wr.Register(&types.RoomEntry{SessionID: "a", Color: "#0000ff", JoinedAt: clock.Now().UnixMilli(), Participant: true}, clock.Now())

	require.Len(t, wr.Participants(), 1)
	got := wr.Participants()[0]
	assert.Equal(t, "#0000ff", got.Color)
	assert.True(t, got.Ready)
	assert.Equal(t, first.JoinedAt, got.JoinedAt)
}

func TestRoomPromotionAndDemotion(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()

	wr.Register(entry("a", false), clock.Now())
	assert.Nil(t, wr.FindParticipant("a"))

	wr.Register(entry("a", true), clock.Now())
	require.NotNil(t, wr.FindParticipant("a"))
	require.Len(t, wr.Entries(), 1)

	wr.Register(entry("a", false), clock.Now())
	assert.Nil(t, wr.FindParticipant("a"))
	assert.Len(t, wr.Entries(), 1)
}

func TestRoomAllReady(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()

	assert.False(t, wr.AllReady())

	wr.Register(entry("a", true), clock.Now())
	wr.Register(entry("b", true), clock.Now())
	require.True(t, wr.Ready("a"))
	assert.False(t, wr.AllReady())

	// Ready is one-way and spectators have no flag to set.
	assert.False(t, wr.Ready("a"))
	assert.False(t, wr.Ready("ghost"))

	require.True(t, wr.Ready("b"))
	assert.True(t, wr.AllReady())
}

func TestRoomCountdownSurvivesEmptyRoster(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()

	wr.Register(entry("a", true), clock.Now())
	require.True(t, wr.Leave("a"))

	// The countdown keeps running and still expires on schedule.
	assert.Equal(t, RoomCounting, wr.State())
	clock.Advance(60 * time.Second)
	assert.True(t, wr.Tick(clock.Now()).Start)
}

func TestRoomTickThrottlesBroadcasts(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()
	wr.Register(entry("a", true), clock.Now())
	wr.MarkBroadcast(clock.Now())

	clock.Advance(time.Second)
	assert.False(t, wr.Tick(clock.Now()).Broadcast)

	clock.Advance(4 * time.Second)
	tick := wr.Tick(clock.Now())
	assert.True(t, tick.Broadcast)
	assert.False(t, tick.StartingSoon)
}

func TestRoomFinalStretchBroadcastsEveryTick(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()
	wr.Register(entry("a", true), clock.Now())

	clock.Advance(51 * time.Second)
	wr.MarkBroadcast(clock.Now())

	tick := wr.Tick(clock.Now())
	assert.True(t, tick.Broadcast)
	assert.True(t, tick.StartingSoon)

	// The "soon" announcement is one-shot, broadcasts keep firing.
	clock.Advance(time.Second)
	tick = wr.Tick(clock.Now())
	assert.True(t, tick.Broadcast)
	assert.False(t, tick.StartingSoon)
}

func TestRoomEnterStartingIsIdempotent(t *testing.T) {
	wr := NewWaitingRoom(testRoomConfig())
	clock := newFakeClock()
	wr.Register(entry("a", true), clock.Now())
	wr.Register(entry("b", true), clock.Now())

	require.True(t, wr.EnterStarting(clock.Now()))
	assert.False(t, wr.EnterStarting(clock.Now()))

	assert.Equal(t, 0, wr.TimeLeft(clock.Now()))
	for _, e := range wr.Participants() {
		assert.True(t, e.Ready)
	}

	// Starting holds until the reset delay elapses.
	clock.Advance(4 * time.Second)
	assert.False(t, wr.Tick(clock.Now()).Reset)
	clock.Advance(time.Second)
	assert.True(t, wr.Tick(clock.Now()).Reset)

	wr.Reset()
	assert.Equal(t, RoomIdle, wr.State())
	assert.Empty(t, wr.Entries())
}

func TestCountdownExpiryStartsRaceExactlyOnce(t *testing.T) {
	g, gw, clock := newTestGame(Config{WaitingRoomDuration: 30 * time.Second, RaceDuration: 60 * time.Second})
	g.handleConnect("a", clock.Now())
	send(g, clock, "a", messages.TypeRegisterForRace, map[string]interface{}{"itemId": "1"})
	gw.reset()

	clock.Advance(30 * time.Second)
	g.tick(clock.Now())
	g.tick(clock.Now())

	assert.Len(t, gw.ofType(messages.TypeRaceStarted), 1)
	assert.True(t, g.race.Active())
}

func TestAllReadyStartsRaceEarly(t *testing.T) {
	g, gw, clock := newTestGame(Config{WaitingRoomDuration: 5 * time.Minute})
	g.handleConnect("a", clock.Now())
	g.handleConnect("b", clock.Now())
	send(g, clock, "a", messages.TypeRegisterForRace, nil)
	send(g, clock, "b", messages.TypeRegisterForRace, nil)
	gw.reset()

	send(g, clock, "a", messages.TypeReady, nil)
	assert.Empty(t, gw.ofType(messages.TypeRaceStarted))
	assert.False(t, g.race.Active())

	send(g, clock, "b", messages.TypeReady, nil)
	assert.Len(t, gw.ofType(messages.TypeRaceStarted), 1)
	assert.True(t, g.race.Active())
}

func TestDepartureOfUnreadyParticipantStartsRace(t *testing.T) {
	g, gw, clock := newTestGame(Config{WaitingRoomDuration: 5 * time.Minute})
	g.handleConnect("a", clock.Now())
	g.handleConnect("b", clock.Now())
	send(g, clock, "a", messages.TypeRegisterForRace, nil)
	send(g, clock, "b", messages.TypeRegisterForRace, nil)
	send(g, clock, "a", messages.TypeReady, nil)
	gw.reset()

	// The only unready participant leaves; the next tick notices
	// everyone remaining is ready.
	send(g, clock, "b", messages.TypeLeaveRace, nil)
	g.tick(clock.Now())

	assert.Len(t, gw.ofType(messages.TypeRaceStarted), 1)
	require.True(t, g.race.Active())
	require.Len(t, g.race.Roster(), 1)
	assert.Equal(t, "a", g.race.Roster()[0].SessionID)
}

func TestSpectatorPromotionKeepsBets(t *testing.T) {
	g, gw, clock := newTestGame(Config{})
	g.handleConnect("a", clock.Now())
	g.handleConnect("b", clock.Now())
	send(g, clock, "a", messages.TypeRegisterForRace, map[string]interface{}{"itemId": "9"})
	send(g, clock, "b", messages.TypeJoinAsSpectator, nil)
	send(g, clock, "b", messages.TypePlaceBet, map[string]interface{}{
		"amount": 25, "targetSessionId": "a", "address": "addr-b",
	})
	require.Len(t, g.bets.Bets(), 1)
	gw.reset()

	send(g, clock, "b", messages.TypeRegisterForRace, nil)

	require.Len(t, g.bets.Bets(), 1)
	assert.Equal(t, "a", g.bets.Bets()[0].TargetSessionID)
	assert.NotNil(t, g.room.FindParticipant("b"))
}
