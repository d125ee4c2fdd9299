package handlers

import (
	"encoding/json"
	"net/http"

	"rxtrack-backend/internal/middleware"
	"rxtrack-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// DeviceHandler registers push tokens
type DeviceHandler struct {
	devices *repository.DeviceRepository
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// RegisterDeviceRequest represents the request body for registering a device
type RegisterDeviceRequest struct {
	PushToken string `json:"push_token"`
}

// RegisterDevice handles PUT /api/v1/devices
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PushToken == "" {
		respondError(w, "push_token is required", http.StatusBadRequest)
		return
	}

	if err := h.devices.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register device")
		respondError(w, "Failed to register device", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Msg("Device registered")
	w.WriteHeader(http.StatusNoContent)
}
