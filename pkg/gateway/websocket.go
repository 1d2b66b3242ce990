package gateway

import (
	"github.com/racewire/pitlane/pkg/log"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/racewire/pitlane/pkg/sessions"
)

// WSGateway delivers events over the websocket connections tracked by
// the session manager. Write failures are logged and skipped: a dying
// connection will be reaped by its read loop, and one session's
// failure must never affect the others.
type WSGateway struct {
	manager *sessions.Manager
}

// NewWSGateway creates a Gateway backed by the session manager.
func NewWSGateway(manager *sessions.Manager) *WSGateway {
	return &WSGateway{manager: manager}
}

func (g *WSGateway) SendToAll(msg *messages.Message) {
	for _, conn := range g.manager.GetAll() {
		if err := conn.Write(msg); err != nil {
			log.Error("Failed to write %s to session %s: %v", msg.Type, conn.ID, err)
		}
	}
}

func (g *WSGateway) SendToOne(sessionID string, msg *messages.Message) {
	conn := g.manager.Get(sessionID)
	if conn == nil {
		log.Trace("Session %s is gone, dropping %s", sessionID, msg.Type)
		return
	}
	if err := conn.Write(msg); err != nil {
		log.Error("Failed to write %s to session %s: %v", msg.Type, sessionID, err)
	}
}

func (g *WSGateway) SendToAllExcept(sessionID string, msg *messages.Message) {
	for _, conn := range g.manager.GetAll() {
		if conn.ID == sessionID {
			continue
		}
		if err := conn.Write(msg); err != nil {
			log.Error("Failed to write %s to session %s: %v", msg.Type, conn.ID, err)
		}
	}
}
