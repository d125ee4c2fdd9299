package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"rxtrack-backend/internal/middleware"
	"rxtrack-backend/internal/models"
	"rxtrack-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// multipart framing allowance on top of the image itself
const multipartOverhead = 1 << 20

// PrescriptionHandler handles prescription-related HTTP requests
type PrescriptionHandler struct {
	prescriptionService *services.PrescriptionService
	maxImageSize        int64
	submitTimeout       time.Duration
}

// NewPrescriptionHandler creates a new prescription handler
func NewPrescriptionHandler(prescriptionService *services.PrescriptionService, maxImageSize int64, submitTimeout time.Duration) *PrescriptionHandler {
	return &PrescriptionHandler{
		prescriptionService: prescriptionService,
		maxImageSize:        maxImageSize,
		submitTimeout:       submitTimeout,
	}
}

// SelectPharmacyRequest represents the request body for choosing a pharmacy
type SelectPharmacyRequest struct {
	PharmacyID string `json:"pharmacy_id"`
}

// UploadPrescription handles POST /api/v1/prescriptions
func (h *PrescriptionHandler) UploadPrescription(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "image is too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > h.maxImageSize {
		respondError(w, "image is too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, err = sniffContentType(file)
		if err != nil {
			respondError(w, "Failed to read image", http.StatusBadRequest)
			return
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondError(w, "Please upload an image file", http.StatusUnsupportedMediaType)
		return
	}

	ctx := r.Context()
	if h.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.submitTimeout)
		defer cancel()
	}

	prescription, err := h.prescriptionService.Upload(ctx, userID, services.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("filename", header.Filename).
			Msg("Failed to upload prescription")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, prescription)
}

// GetPrescriptions handles GET /api/v1/prescriptions
func (h *PrescriptionHandler) GetPrescriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var status *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.Status(raw)
		status = &s
	}

	prescriptions, err := h.prescriptionService.ListPrescriptions(ctx, userID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"prescriptions": prescriptions,
		"total":         len(prescriptions),
	})
}

// GetPrescription handles GET /api/v1/prescriptions/{prescription_id}
func (h *PrescriptionHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	prescription, err := h.prescriptionService.GetPrescription(ctx, userID, chi.URLParam(r, "prescription_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prescription)
}

// SelectPharmacy handles PUT /api/v1/prescriptions/{prescription_id}/pharmacy
func (h *PrescriptionHandler) SelectPharmacy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	prescriptionID := chi.URLParam(r, "prescription_id")

	var req SelectPharmacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PharmacyID == "" {
		respondError(w, "pharmacy_id is required", http.StatusBadRequest)
		return
	}

	prescription, err := h.prescriptionService.SelectPharmacy(ctx, userID, prescriptionID, req.PharmacyID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("prescription_id", prescriptionID).
			Str("pharmacy_id", req.PharmacyID).
			Msg("Failed to select pharmacy")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prescription)
}

func sniffContentType(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
