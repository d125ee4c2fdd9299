package handlers

import (
	"net/http"

	"rxtrack-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PharmacyHandler serves the pharmacy catalog
type PharmacyHandler struct {
	prescriptionService *services.PrescriptionService
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(prescriptionService *services.PrescriptionService) *PharmacyHandler {
	return &PharmacyHandler{
		prescriptionService: prescriptionService,
	}
}

// GetPharmacies handles GET /api/v1/pharmacies?q=
func (h *PharmacyHandler) GetPharmacies(w http.ResponseWriter, r *http.Request) {
	pharmacies := h.prescriptionService.ListPharmacies(r.Context(), r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pharmacies": pharmacies,
	})
}

// GetPharmacy handles GET /api/v1/pharmacies/{pharmacy_id}
func (h *PharmacyHandler) GetPharmacy(w http.ResponseWriter, r *http.Request) {
	pharmacy, err := h.prescriptionService.GetPharmacy(r.Context(), chi.URLParam(r, "pharmacy_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pharmacy)
}
