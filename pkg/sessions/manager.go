package sessions

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/racewire/pitlane/pkg/log"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/racewire/pitlane/pkg/queue"
)

// Conn is one connected client channel.
type Conn struct {
	ID      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Write serializes a message and writes it to the channel. Writes are
// serialized per connection; the game loop and the read loop may both
// trigger sends.
func (c *Conn) Write(msg *messages.Message) error {
	b, err := messages.Serialize(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write message to websocket: %v", err)
	}
	return nil
}

// Close closes the underlying channel.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// EventType is the kind of connection event.
type EventType int

const (
	EventConnect EventType = iota
	EventDisconnect
)

// Event is a connect or disconnect observed by the manager. Events are
// enqueued for the game loop so session lifecycle is processed on the
// same goroutine as every other state mutation.
type Event struct {
	SessionID string
	Type      EventType
}

// Manager tracks one Conn per connected transport channel.
type Manager struct {
	conns      map[string]*Conn
	connsLock  sync.RWMutex
	eventQueue queue.Queue
}

// NewManager creates a Manager that reports connection events on eventQueue.
func NewManager(eventQueue queue.Queue) *Manager {
	return &Manager{
		conns:      make(map[string]*Conn),
		eventQueue: eventQueue,
	}
}

// Add registers a websocket connection and returns its Conn.
func (m *Manager) Add(ws *websocket.Conn) *Conn {
	id := uuid.NewString()
	c := &Conn{ID: id, ws: ws}

	m.connsLock.Lock()
	m.conns[id] = c
	m.connsLock.Unlock()

	// A dropped lifecycle event desyncs the game registry from the
	// connection map, so losing one is always worth an error.
	if !m.eventQueue.Enqueue(Event{SessionID: id, Type: EventConnect}) {
		log.Error("Event queue full, dropping connect for session %s", id)
	}
	return c
}

// Remove drops a connection and reports the disconnect.
func (m *Manager) Remove(sessionID string) {
	m.connsLock.Lock()
	_, ok := m.conns[sessionID]
	delete(m.conns, sessionID)
	m.connsLock.Unlock()

	if !ok {
		return
	}
	if !m.eventQueue.Enqueue(Event{SessionID: sessionID, Type: EventDisconnect}) {
		log.Error("Event queue full, dropping disconnect for session %s", sessionID)
	}
}

// Get returns the connection for a session ID, or nil.
func (m *Manager) Get(sessionID string) *Conn {
	m.connsLock.RLock()
	defer m.connsLock.RUnlock()
	return m.conns[sessionID]
}

// GetAll returns all connected channels.
func (m *Manager) GetAll() []*Conn {
	m.connsLock.RLock()
	defer m.connsLock.RUnlock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}
