package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"rxtrack-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types
const (
	WSTypeNotification = "notification"
	WSTypeUnreadCount  = "unread_count"
	WSTypeMarkRead     = "mark_read"
	WSTypeError        = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type           string      `json:"type"`
	NotificationID string      `json:"notification_id,omitempty"`
	Message        string      `json:"message,omitempty"`
	Data           interface{} `json:"data,omitempty"`
}

// wsClient serializes writes, gorilla connections allow one writer at a time
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages one WebSocket connection per user and pushes notifications
// to whoever is connected
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user, replacing any
// previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists && client.conn == conn {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Notify pushes a notification to the owner if they are connected.
// Offline users are not an error; they read the list on next load.
func (h *WSHub) Notify(ctx context.Context, n models.Notification) error {
	if !h.IsOnline(n.UserID) {
		return nil
	}
	return h.SendToUser(n.UserID, WSMessage{
		Type: WSTypeNotification,
		Data: n,
	})
}

// SendUnreadCount tells the user how many notifications are unread
func (h *WSHub) SendUnreadCount(userID string, unread int) error {
	return h.SendToUser(userID, WSMessage{
		Type: WSTypeUnreadCount,
		Data: map[string]int{"unread": unread},
	})
}

// Close drops every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, client := range h.connections {
		client.conn.Close()
		delete(h.connections, userID)
	}
}
