package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager owns every live notification stream connection. It indexes clients
// by user so a single Push reaches all of a user's open tabs and devices.
// The stream is one-way: the server nudges, the client refetches over HTTP.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	logger         *zap.Logger
}

const (
	defaultMaxConnPerUser = 8
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
)

// NewManager creates a connection manager with the default limits. Call Run
// in its own goroutine before accepting connections.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		maxConnPerUser: defaultMaxConnPerUser,
		writeWait:      defaultWriteWait,
		pongWait:       defaultPongWait,
		pingPeriod:     defaultPongWait * 9 / 10,
		logger:         logger,
	}
}

// Run processes register and unregister events until the process exits.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.logger.Warn("max stream connections reached",
			zap.String("userID", client.UserID))
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	m.logger.Debug("stream client registered",
		zap.String("clientID", client.ID), zap.String("userID", client.UserID))
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		m.logger.Debug("stream client unregistered", zap.String("clientID", client.ID))
	}
}

// Push delivers payload to every open connection of userID. Best-effort: a
// user with no connections is a silent no-op, and a client whose send buffer
// is full gets disconnected rather than blocking the caller.
func (m *Manager) Push(userID string, payload interface{}) {
	messageBytes, err := json.Marshal(payload)
	if err != nil {
		m.logger.Warn("push payload marshal failed",
			zap.String("userID", userID), zap.Error(err))
		return
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	clientIDs, exists := m.userIndex[userID]
	if !exists {
		return
	}

	for clientID := range clientIDs {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			m.logger.Warn("stream client send buffer full, dropping connection",
				zap.String("clientID", clientID))
			go func(c *Client) { m.Unregister <- c }(client)
		}
	}
}

// UserConnections reports how many connections userID currently holds.
func (m *Manager) UserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
