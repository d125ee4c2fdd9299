package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"rxtrack-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Inbound frames only carry mark_read requests
const maxInboundMessageSize = 4096

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced on the REST routes
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub                 *services.WSHub
	authService         *services.AuthService
	prescriptionService *services.PrescriptionService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	authService *services.AuthService,
	prescriptionService *services.PrescriptionService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                 hub,
		authService:         authService,
		prescriptionService: prescriptionService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.authService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxInboundMessageSize)

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	if err := h.hub.SendUnreadCount(userID, h.prescriptionService.UnreadCount(ctx, userID)); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to send unread_count message")
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case services.WSTypeMarkRead:
		return h.handleMarkRead(ctx, userID, msg)
	default:
		return errors.New("unknown message type")
	}
}

// handleMarkRead marks a notification read and answers with the new count
func (h *WebSocketHandler) handleMarkRead(ctx context.Context, userID string, msg services.WSMessage) error {
	if msg.NotificationID == "" {
		return errors.New("notification_id is required")
	}

	if err := h.prescriptionService.MarkNotificationAsRead(ctx, userID, msg.NotificationID); err != nil {
		return err
	}

	return h.hub.SendUnreadCount(userID, h.prescriptionService.UnreadCount(ctx, userID))
}

// sendError sends an error message to the user's connection
func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{
		Type:    services.WSTypeError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
