package handlers

import (
	"net/http"

	"rxtrack-backend/internal/middleware"
	"rxtrack-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	prescriptionService *services.PrescriptionService
	wsHub               *services.WSHub
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(prescriptionService *services.PrescriptionService, wsHub *services.WSHub) *NotificationHandler {
	return &NotificationHandler{
		prescriptionService: prescriptionService,
		wsHub:               wsHub,
	}
}

// GetNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.prescriptionService.ListNotifications(ctx, userID),
		"unread":        h.prescriptionService.UnreadCount(ctx, userID),
	})
}

// MarkAsRead handles POST /api/v1/notifications/{notification_id}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	notificationID := chi.URLParam(r, "notification_id")

	if err := h.prescriptionService.MarkNotificationAsRead(ctx, userID, notificationID); err != nil {
		respondServiceError(w, err)
		return
	}

	h.pushUnreadCount(r, userID)
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllAsRead handles POST /api/v1/notifications/read
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	changed := h.prescriptionService.MarkAllNotificationsAsRead(ctx, userID)
	h.pushUnreadCount(r, userID)

	respondJSON(w, http.StatusOK, map[string]int{"marked": changed})
}

// pushUnreadCount keeps other open tabs of the same user in sync
func (h *NotificationHandler) pushUnreadCount(r *http.Request, userID string) {
	if !h.wsHub.IsOnline(userID) {
		return
	}
	unread := h.prescriptionService.UnreadCount(r.Context(), userID)
	if err := h.wsHub.SendUnreadCount(userID, unread); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to push unread count")
	}
}
