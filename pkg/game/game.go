package game

import (
	"context"
	"sort"
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
	"github.com/racewire/pitlane/pkg/gateway"
	"github.com/racewire/pitlane/pkg/log"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/racewire/pitlane/pkg/queue"
	"github.com/racewire/pitlane/pkg/sessions"
)

// Game is the authoritative session manager. A single goroutine (the
// Start loop) owns every piece of state below: connection events,
// client commands and timer ticks are all processed on that goroutine,
// so coordinators need no locks.
type Game struct {
	gateway              gateway.Gateway
	commandQueue         queue.Queue
	connectionEventQueue queue.Queue
	cfg                  Config

	registry *Registry
	coins    *CoinLedger
	room     *WaitingRoom
	bets     *BetLedger
	race     *Race

	lastPositionLog time.Time

	// now is swapped out by tests to drive timers deterministically.
	now func() time.Time
}

// NewGameOptions contains options for creating a new Game.
type NewGameOptions struct {
	Gateway              gateway.Gateway
	CommandQueue         queue.Queue
	ConnectionEventQueue queue.Queue
	Config               Config
}

func NewGame(opts NewGameOptions) *Game {
	cfg := opts.Config.withDefaults()
	return &Game{
		gateway:              opts.Gateway,
		commandQueue:         opts.CommandQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		cfg:                  cfg,
		registry:             NewRegistry(),
		coins:                NewCoinLedger(cfg.CoinCount),
		room:                 NewWaitingRoom(cfg),
		bets:                 NewBetLedger(),
		race:                 NewRace(cfg),
		now:                  time.Now,
	}
}

// Start runs the game loop until ctx is done.
func (g *Game) Start(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.tick(g.now())
		}
	}
}

// tick runs one iteration of the game loop: lifecycle events first,
// then client commands, then timers.
func (g *Game) tick(now time.Time) {
	g.processConnectionEvents(now)
	g.processCommands(now)
	g.tickRoom(now)
	g.tickRace(now)
	g.logPositions(now)
}

// processConnectionEvents drains pending connects and disconnects.
func (g *Game) processConnectionEvents(now time.Time) {
	for _, item := range g.connectionEventQueue.ReadAllMessages() {
		event, ok := item.(sessions.Event)
		if !ok {
			log.Error("Unhandled connection event type: %T", item)
			continue
		}
		switch event.Type {
		case sessions.EventConnect:
			g.handleConnect(event.SessionID, now)
		case sessions.EventDisconnect:
			g.handleDisconnect(event.SessionID, now)
		}
	}
}

// processCommands drains pending client commands in arrival order.
func (g *Game) processCommands(now time.Time) {
	for _, item := range g.commandQueue.ReadAllMessages() {
		inbound, ok := item.(*messages.Inbound)
		if !ok {
			log.Error("Unhandled command item type: %T", item)
			continue
		}
		g.handleCommand(inbound, now)
	}
}

// handleCommand routes one named client command to its owning
// coordinator. No business logic here beyond dispatch.
func (g *Game) handleCommand(in *messages.Inbound, now time.Time) {
	switch in.Msg.Type {
	case messages.TypeInit:
		g.handleInit(in, now)
	case messages.TypeMove:
		g.handleMove(in, now)
	case messages.TypeCollectCoin:
		g.handleCollectCoin(in, now)
	case messages.TypeRegisterForRace:
		g.handleRegister(in, now)
	case messages.TypeJoinAsSpectator:
		g.handleSpectate(in, now)
	case messages.TypeLeaveRace:
		g.handleLeave(in, now)
	case messages.TypeReady:
		g.handleReady(in, now)
	case messages.TypeForceStart:
		g.startRace(now)
	case messages.TypePlaceBet:
		g.handlePlaceBet(in, now)
	case messages.TypeRequestRaceState:
		g.handleRequestRaceState(in, now)
	default:
		log.Warn("Unhandled command type %q from session %s", in.Msg.Type, in.SessionID)
	}
}

func (g *Game) handleConnect(sessionID string, now time.Time) {
	session := g.registry.Add(sessionID, now)
	log.Debug("Session %s connected, %d total", sessionID, g.registry.Len())

	g.unicast(sessionID, messages.TypeSessionList, &messages.SessionList{Sessions: g.registry.Snapshot()})
	g.unicast(sessionID, messages.TypeCoinState, &messages.CoinState{Claims: g.coins.Snapshot()})
	if g.race.Active() {
		g.unicast(sessionID, messages.TypeRaceTime, &messages.RaceTime{
			TimeLeft: g.race.TimeLeft(now),
			Duration: g.race.Duration(),
		})
	} else if results := g.race.LastResults(); results != nil {
		g.unicast(sessionID, messages.TypeRaceResults, results)
	}
	g.broadcastExcept(sessionID, messages.TypeSessionJoined, session)
}

func (g *Game) handleDisconnect(sessionID string, now time.Time) {
	if g.registry.Get(sessionID) == nil {
		return
	}
	g.registry.Remove(sessionID)
	log.Debug("Session %s disconnected, %d total", sessionID, g.registry.Len())

	g.broadcast(messages.TypeSessionLeft, &messages.SessionLeft{ID: sessionID})
	// Bets and coin claims referencing the session stay: they are
	// historical data for result computation.
	if g.room.Leave(sessionID) {
		g.broadcastRoom(now)
	}
}

func (g *Game) handleInit(in *messages.Inbound, now time.Time) {
	session := g.registry.Get(in.SessionID)
	if session == nil {
		return
	}
	cmd, err := messages.ParseInit(in.Msg.Payload)
	if err != nil {
		log.Debug("Dropping init from session %s: %v", in.SessionID, err)
		return
	}
	if cmd.Color != "" {
		session.Color = cmd.Color
	}
	if cmd.Name != "" {
		session.Name = cmd.Name
	}
	if cmd.ItemID != "" {
		session.ItemID = cmd.ItemID
	}
	session.LastUpdate = now.UnixMilli()
	g.broadcastExcept(in.SessionID, messages.TypeSessionUpdated, session)
}

func (g *Game) handleMove(in *messages.Inbound, now time.Time) {
	session := g.registry.Get(in.SessionID)
	if session == nil {
		return
	}
	cmd, err := messages.ParseMove(in.Msg.Payload)
	if err != nil {
		// Silent rejection: no broadcast, nothing surfaced to the sender.
		log.Debug("Dropping move from session %s: %v", in.SessionID, err)
		return
	}
	session.Position = cmd.Position
	if cmd.Rotation != nil {
		session.Rotation = *cmd.Rotation
	}
	if cmd.Color != "" {
		session.Color = cmd.Color
	}
	if len(cmd.Controls) > 0 {
		session.Controls = cmd.Controls
	}
	session.LastUpdate = now.UnixMilli()

	g.broadcastExcept(in.SessionID, messages.TypeSessionMoved, session)
	g.unicast(in.SessionID, messages.TypeMoveConfirmed, &messages.MoveConfirmed{
		ID:       session.ID,
		Position: session.Position,
	})
}

func (g *Game) handleCollectCoin(in *messages.Inbound, now time.Time) {
	coinIndex, err := messages.ParseCollectCoin(in.Msg.Payload)
	if err != nil {
		log.Debug("Dropping coin claim from session %s: %v", in.SessionID, err)
		return
	}
	if !g.race.Active() {
		log.Debug("Dropping coin %d claim from session %s: no race active", coinIndex, in.SessionID)
		return
	}
	session := g.registry.Get(in.SessionID)
	if session == nil {
		return
	}
	if !g.coins.Claim(coinIndex, session, now) {
		log.Debug("Coin %d claim from session %s lost", coinIndex, in.SessionID)
		return
	}
	log.Debug("Session %s claimed coin %d", session.DisplayName(), coinIndex)
	g.broadcast(messages.TypeCoinClaimed, &messages.CoinClaimed{
		CoinIndex: coinIndex,
		Collector: messages.Collector{ID: session.ID, Name: session.DisplayName()},
		Claims:    g.coins.Snapshot(),
	})
}

func (g *Game) handleRegister(in *messages.Inbound, now time.Time) {
	session := g.registry.Get(in.SessionID)
	if session == nil {
		return
	}
	cmd, err := messages.ParseRegister(in.Msg.Payload)
	if err != nil {
		log.Debug("Dropping registration from session %s: %v", in.SessionID, err)
		return
	}

	// Registration details also stick to the session so results carry
	// the wallet address and item even after the room resets.
	if cmd.Color != "" {
		session.Color = cmd.Color
	}
	if cmd.Name != "" {
		session.Name = cmd.Name
	}
	if cmd.Address != "" {
		session.Address = cmd.Address
	}
	if cmd.ItemID != "" {
		session.ItemID = cmd.ItemID
	}

	g.room.Register(&types.RoomEntry{
		SessionID:   session.ID,
		Color:       session.Color,
		Name:        session.Name,
		Address:     session.Address,
		ItemID:      session.ItemID,
		JoinedAt:    now.UnixMilli(),
		Participant: cmd.Participant,
	}, now)

	g.broadcastRoom(now)
	g.unicast(in.SessionID, messages.TypeBetUpdated, &messages.BetUpdated{
		Bets: g.bets.Bets(),
		Pool: g.bets.Pool(),
	})
}

func (g *Game) handleSpectate(in *messages.Inbound, now time.Time) {
	session := g.registry.Get(in.SessionID)
	if session == nil {
		return
	}
	cmd, err := messages.ParseSpectate(in.Msg.Payload)
	if err != nil {
		log.Debug("Dropping spectate from session %s: %v", in.SessionID, err)
		return
	}
	if cmd.Address != "" {
		session.Address = cmd.Address
	}
	if cmd.Name != "" {
		session.Name = cmd.Name
	}

	g.room.Register(&types.RoomEntry{
		SessionID:   session.ID,
		Color:       session.Color,
		Name:        session.Name,
		Address:     session.Address,
		ItemID:      session.ItemID,
		JoinedAt:    now.UnixMilli(),
		Participant: false,
	}, now)

	g.unicast(in.SessionID, messages.TypeRoomUpdated, g.roomSnapshot(now))
	g.unicast(in.SessionID, messages.TypeBetUpdated, &messages.BetUpdated{
		Bets: g.bets.Bets(),
		Pool: g.bets.Pool(),
	})
}

func (g *Game) handleLeave(in *messages.Inbound, now time.Time) {
	if g.room.Leave(in.SessionID) {
		g.broadcastRoom(now)
	}
}

func (g *Game) handleReady(in *messages.Inbound, now time.Time) {
	if !g.room.Ready(in.SessionID) {
		return
	}
	if g.room.State() == RoomCounting && g.room.AllReady() {
		g.startRace(now)
		return
	}
	g.broadcastRoom(now)
}

func (g *Game) handlePlaceBet(in *messages.Inbound, now time.Time) {
	cmd, err := messages.ParsePlaceBet(in.Msg.Payload)
	if err != nil {
		log.Debug("Rejecting bet from session %s: %v", in.SessionID, err)
		g.unicast(in.SessionID, messages.TypeBetRejected, &messages.BetRejected{Reason: "invalid bet payload"})
		return
	}

	target := g.room.FindParticipant(cmd.TargetSessionID)
	bet, reason := g.bets.Place(cmd, in.SessionID, target, now)
	if reason != "" {
		log.Debug("Rejecting bet from session %s: %s", in.SessionID, reason)
		g.unicast(in.SessionID, messages.TypeBetRejected, &messages.BetRejected{Reason: reason})
		return
	}

	log.Info("Bet %s accepted: %s on %s, pool now %s", bet.ID, bet.Amount, bet.TargetSessionID, g.bets.Pool())
	g.unicast(in.SessionID, messages.TypeBetConfirmed, &messages.BetConfirmed{Bet: bet})
	g.broadcast(messages.TypeBetUpdated, &messages.BetUpdated{
		Bets: g.bets.Bets(),
		Pool: g.bets.Pool(),
	})
}

func (g *Game) handleRequestRaceState(in *messages.Inbound, now time.Time) {
	g.unicast(in.SessionID, messages.TypeRoomUpdated, g.roomSnapshot(now))
	if g.race.Active() {
		g.unicast(in.SessionID, messages.TypeRaceTime, &messages.RaceTime{
			TimeLeft: g.race.TimeLeft(now),
			Duration: g.race.Duration(),
		})
		return
	}
	if results := g.race.LastResults(); results != nil {
		g.unicast(in.SessionID, messages.TypeRaceResults, results)
	}
}

// startRace runs the Starting transition: mark everyone ready,
// announce, and hand the participant roster to the race session.
// Safe to call from expiry ticks, all-ready checks and force-start;
// only the first caller per cycle does anything.
func (g *Game) startRace(now time.Time) {
	if g.race.Active() {
		return
	}
	if !g.room.EnterStarting(now) {
		return
	}

	participants := g.room.Participants()
	log.Info("Race starting with %d participants", len(participants))

	// Collected-coin history is per race cycle. Without this a session
	// racing twice would carry its first race's coins into the second
	// result set.
	for _, s := range g.registry.All() {
		s.CollectedCoins = []int{}
	}

	g.broadcastRoom(now)
	g.broadcast(messages.TypeRaceStarted, &messages.RaceStarted{
		Players:  participants,
		Duration: int(g.cfg.RaceDuration.Seconds()),
	})

	g.race.Activate(participants, now)
	g.broadcast(messages.TypeRaceTime, &messages.RaceTime{
		TimeLeft: g.race.TimeLeft(now),
		Duration: g.race.Duration(),
	})
}

// finishRace finalizes standings, announces them with the bet state,
// and clears the coin and bet ledgers for the next cycle.
func (g *Game) finishRace(now time.Time) {
	results := g.buildResults()
	winners := make([]string, 0, 3)
	for i, res := range results {
		if i == 3 {
			break
		}
		winners = append(winners, res.SessionID)
	}

	payload := &messages.RaceResults{
		Results: results,
		Winners: winners,
		Bets:    g.bets.Bets(),
		Pool:    g.bets.Pool(),
	}
	g.race.Finish(payload)
	log.Info("Race finished: %d results, %d winners, pool %s", len(results), len(winners), payload.Pool)

	g.broadcast(messages.TypeRaceResults, payload)

	g.coins.Clear()
	g.bets.Clear()
}

// buildResults computes standings from every connected session's
// collected-coin history: race roster members always count, other
// sessions only if they collected coins. Sessions that disconnected
// mid-race are dropped. The sort is stable, descending by coin count,
// with roster order then join order breaking ties.
func (g *Game) buildResults() []*types.RaceResult {
	inRoster := make(map[string]bool)
	ordered := make([]*types.Session, 0, g.registry.Len())
	for _, e := range g.race.Roster() {
		if s := g.registry.Get(e.SessionID); s != nil {
			inRoster[e.SessionID] = true
			ordered = append(ordered, s)
		}
	}
	for _, s := range g.registry.All() {
		if !inRoster[s.ID] && len(s.CollectedCoins) > 0 {
			ordered = append(ordered, s)
		}
	}

	results := make([]*types.RaceResult, 0, len(ordered))
	for _, s := range ordered {
		coins := make([]int, len(s.CollectedCoins))
		copy(coins, s.CollectedCoins)
		results = append(results, &types.RaceResult{
			SessionID: s.ID,
			Name:      s.DisplayName(),
			Address:   s.Address,
			Color:     s.Color,
			CoinCount: len(coins),
			Coins:     coins,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CoinCount > results[j].CoinCount
	})
	return results
}

func (g *Game) tickRoom(now time.Time) {
	t := g.room.Tick(now)
	switch {
	case t.Start:
		g.startRace(now)
	case t.Reset:
		g.room.Reset()
		g.broadcastRoom(now)
	default:
		// Departures can leave every remaining participant ready.
		if g.room.State() == RoomCounting && g.room.AllReady() {
			g.startRace(now)
			return
		}
		if t.StartingSoon {
			g.broadcast(messages.TypeRoomStartingSoon, &messages.RoomStartingSoon{
				TimeLeft: g.room.TimeLeft(now),
			})
		}
		if t.Broadcast {
			g.broadcastRoom(now)
		}
	}
}

func (g *Game) tickRace(now time.Time) {
	t := g.race.Tick(now)
	switch {
	case t.Finish:
		g.finishRace(now)
	default:
		if t.EndingSoon {
			g.broadcast(messages.TypeRaceEndingSoon, &messages.RaceEndingSoon{
				TimeLeft: g.race.TimeLeft(now),
			})
		}
		if t.Broadcast {
			g.broadcast(messages.TypeRaceTime, &messages.RaceTime{
				TimeLeft: g.race.TimeLeft(now),
				Duration: g.race.Duration(),
			})
			g.race.MarkBroadcast(now)
		}
	}
}

// logPositions periodically logs connected positions, for debugging
// desyncs between clients.
func (g *Game) logPositions(now time.Time) {
	if g.registry.Len() == 0 {
		return
	}
	if now.Sub(g.lastPositionLog) < g.cfg.PositionLogInterval {
		return
	}
	g.lastPositionLog = now
	for _, s := range g.registry.All() {
		log.Trace("Session %s at x:%.2f y:%.2f z:%.2f", s.DisplayName(), s.Position.X, s.Position.Y, s.Position.Z)
	}
}

func (g *Game) roomSnapshot(now time.Time) *messages.RoomUpdated {
	return &messages.RoomUpdated{
		Players:  g.room.Entries(),
		TimeLeft: g.room.TimeLeft(now),
		Starting: g.room.Starting(),
	}
}

func (g *Game) broadcastRoom(now time.Time) {
	g.broadcast(messages.TypeRoomUpdated, g.roomSnapshot(now))
	g.room.MarkBroadcast(now)
}

func (g *Game) broadcast(msgType string, payload interface{}) {
	msg, err := messages.New(msgType, payload)
	if err != nil {
		log.Error("Failed to build %s event: %v", msgType, err)
		return
	}
	g.gateway.SendToAll(msg)
}

func (g *Game) broadcastExcept(sessionID, msgType string, payload interface{}) {
	msg, err := messages.New(msgType, payload)
	if err != nil {
		log.Error("Failed to build %s event: %v", msgType, err)
		return
	}
	g.gateway.SendToAllExcept(sessionID, msg)
}

func (g *Game) unicast(sessionID, msgType string, payload interface{}) {
	msg, err := messages.New(msgType, payload)
	if err != nil {
		log.Error("Failed to build %s event: %v", msgType, err)
		return
	}
	g.gateway.SendToOne(sessionID, msg)
}
