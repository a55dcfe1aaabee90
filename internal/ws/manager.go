// File: internal/ws/manager.go
package ws

import (
	"encoding/json"
	"sync"

	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager is the central registry for WebSocket connections. A user may hold
// several connections (multiple tabs/devices); events fan out to all of them.
// Manager implements shared.Relay.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[uuid.UUID]map[uuid.UUID]bool // userID -> set of client IDs
	userMutex    sync.RWMutex
	logger       *zap.Logger
}

// NewManager creates a new WebSocket connection manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]bool),
		logger:      logger.Named("WSManager"),
	}
}

func (m *Manager) addClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	m.logger.Info("WebSocket client connected",
		zap.String("clientID", client.ID.String()),
		zap.String("userID", client.UserID.String()))
}

func (m *Manager) removeClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()
	if !exists {
		return
	}

	m.userMutex.Lock()
	if clients, ok := m.userClients[client.UserID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(m.userClients, client.UserID)
		}
	}
	m.userMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	m.logger.Info("WebSocket client disconnected",
		zap.String("clientID", clientID.String()),
		zap.String("userID", client.UserID.String()))
}

// SendToUser pushes an event to every connection a user holds. Fire-and-forget:
// an offline user simply misses the push, and a client whose send buffer is
// full is disconnected rather than blocking the caller.
func (m *Manager) SendToUser(userID uuid.UUID, event shared.Event) {
	if userID == uuid.Nil {
		return
	}

	m.userMutex.RLock()
	clientIDs, exists := m.userClients[userID]
	m.userMutex.RUnlock()
	if !exists || len(clientIDs) == 0 {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to marshal relay event", zap.Error(err), zap.String("type", string(event.Type)))
		return
	}

	ids := make([]uuid.UUID, 0, len(clientIDs))
	for clientID := range clientIDs {
		ids = append(ids, clientID)
	}

	for _, clientID := range ids {
		m.clientsMutex.RLock()
		client, ok := m.clients[clientID]
		m.clientsMutex.RUnlock()
		if !ok {
			continue
		}

		select {
		case client.send <- eventJSON:
		default:
			// Slow client: its buffer is full, drop the connection.
			m.logger.Warn("Send buffer full, dropping slow WebSocket client",
				zap.String("clientID", client.ID.String()),
				zap.String("userID", client.UserID.String()))
			client.conn.Close()
			m.removeClient(client.ID)
		}
	}
}

// ConnectionCount returns the number of live connections. Used by tests and
// the health endpoint.
func (m *Manager) ConnectionCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown closes all connections and clears the registry.
func (m *Manager) Shutdown() {
	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[uuid.UUID]map[uuid.UUID]bool)
	m.userMutex.Unlock()

	m.logger.Info("WebSocket manager shut down")
}
