package handlers

import (
	"encoding/json"
	"net/http"

	"rxtrack-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// SessionHandler handles sign-in requests
type SessionHandler struct {
	authService *services.AuthService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *services.AuthService) *SessionHandler {
	return &SessionHandler{
		authService: authService,
	}
}

// CreateSessionRequest represents the request body for signing in
type CreateSessionRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.CreateSession(r.Context(), req.Email, req.Name)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Msg("Session created")

	respondJSON(w, http.StatusOK, user)
}
