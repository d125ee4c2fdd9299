package handlers

import (
	"encoding/json"
	"net/http"

	"rxtrack-backend/internal/models"
	"rxtrack-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// IntegrationHandler handles status updates pushed by fulfilling pharmacies
type IntegrationHandler struct {
	prescriptionService *services.PrescriptionService
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(prescriptionService *services.PrescriptionService) *IntegrationHandler {
	return &IntegrationHandler{
		prescriptionService: prescriptionService,
	}
}

// UpdateStatusRequest represents the request body for a status update
type UpdateStatusRequest struct {
	Status models.Status `json:"status"`
}

// UpdateStatus handles POST /api/v1/integration/prescriptions/{prescription_id}/status
func (h *IntegrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	prescriptionID := chi.URLParam(r, "prescription_id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	prescription, err := h.prescriptionService.AdvanceStatus(r.Context(), prescriptionID, req.Status)
	if err != nil {
		log.Error().
			Err(err).
			Str("prescription_id", prescriptionID).
			Str("status", string(req.Status)).
			Msg("Failed to update prescription status")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prescription)
}
