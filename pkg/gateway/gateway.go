// Package gateway is the delivery substrate between the game core and
// connected clients. Coordinators emit events through the Gateway
// interface and never address transport directly, so tests can swap in
// a capturing fake.
package gateway

import "github.com/racewire/pitlane/pkg/messages"

// Gateway delivers server events to connected sessions.
type Gateway interface {
	// SendToAll delivers an event to every connected session.
	SendToAll(msg *messages.Message)
	// SendToOne delivers an event to a single session. Unknown
	// session IDs are a no-op.
	SendToOne(sessionID string, msg *messages.Message)
	// SendToAllExcept delivers an event to every session but one.
	SendToAllExcept(sessionID string, msg *messages.Message)
}
