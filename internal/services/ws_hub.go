package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"restaurant-match-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait      = 10 * time.Second
	friendLookupWait = 5 * time.Second
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	FriendID  string      `json:"friend_id,omitempty"`
	Online    *bool       `json:"online,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// wsConn serializes writes, gorilla connections support one concurrent writer
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and the presence they imply
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsConn
	friends     FriendStore
	presence    *PresenceService
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(friends FriendStore, presence *PresenceService) *WSHub {
	return &WSHub{
		connections: make(map[string]*wsConn),
		friends:     friends,
		presence:    presence,
	}
}

// Register registers a new WebSocket connection for a user, replacing any previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	} else {
		metrics.WebSocketConnections.Inc()
	}
	h.connections[userID] = &wsConn{conn: conn}
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")

	h.presence.Heartbeat(userID)
	go h.NotifyFriendsStatus(userID, true)
}

// Unregister removes conn for a user. A connection that was already replaced is left alone.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	current, exists := h.connections[userID]
	if !exists || current.conn != conn {
		h.mu.Unlock()
		return
	}
	current.conn.Close()
	delete(h.connections, userID)
	metrics.WebSocketConnections.Dec()
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")

	h.presence.Offline(userID)
	go h.NotifyFriendsStatus(userID, false)
}

// Touch refreshes the online status of a connected user
func (h *WSHub) Touch(userID string) {
	if h.IsOnline(userID) {
		h.presence.Heartbeat(userID)
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is connected to this instance
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// ConnectionCount returns the number of connected users
func (h *WSHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// NotifyFriendsStatus tells connected friends that userID went online or offline
func (h *WSHub) NotifyFriendsStatus(userID string, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), friendLookupWait)
	defer cancel()

	friendIDs, err := h.friends.FriendIDs(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load friends for status update")
		return
	}

	message := WSMessage{
		Type:     "friend_status",
		FriendID: userID,
		Online:   &online,
	}
	for _, friendID := range friendIDs {
		if !h.IsOnline(friendID) {
			continue
		}
		if err := h.SendToUser(friendID, message); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", friendID).
				Str("friend_id", userID).
				Msg("Failed to notify friend status")
		}
	}
}
