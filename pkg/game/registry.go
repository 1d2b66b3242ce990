package game

import (
	"time"

	"github.com/racewire/pitlane/pkg/game/types"
)

// defaultSpawn is where new sessions appear before the client sends
// its first movement.
var defaultSpawn = types.Vec3{X: -1, Y: 0, Z: -0.2}

// defaultColor is the appearance used until the client initializes.
const defaultColor = "#ff0000"

// Registry owns the Session lifecycle: one session per connected
// channel, created on connect, deleted on disconnect. Insertion order
// is kept so result computation is deterministic.
type Registry struct {
	sessions map[string]*types.Session
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*types.Session),
	}
}

// Add creates a session with default position and appearance.
func (r *Registry) Add(sessionID string, now time.Time) *types.Session {
	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s := &types.Session{
		ID:             sessionID,
		Position:       defaultSpawn,
		Color:          defaultColor,
		LastUpdate:     now.UnixMilli(),
		CollectedCoins: []int{},
	}
	r.sessions[sessionID] = s
	r.order = append(r.order, sessionID)
	return s
}

// Remove deletes a session. Unknown IDs are a no-op.
func (r *Registry) Remove(sessionID string) {
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	delete(r.sessions, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a session or nil.
func (r *Registry) Get(sessionID string) *types.Session {
	return r.sessions[sessionID]
}

// All returns connected sessions in join order.
func (r *Registry) All() []*types.Session {
	all := make([]*types.Session, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.sessions[id])
	}
	return all
}

// Snapshot returns the registry keyed by session ID, for the
// session-list event sent on connect.
func (r *Registry) Snapshot() map[string]*types.Session {
	snap := make(map[string]*types.Session, len(r.sessions))
	for id, s := range r.sessions {
		snap[id] = s
	}
	return snap
}

// Len returns the number of connected sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
