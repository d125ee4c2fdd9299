package handlers

import (
	"net/http"
	"time"

	"rxtrack-backend/internal/middleware"
	"rxtrack-backend/internal/repository"
	"rxtrack-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps holds everything the HTTP routes need
type RouterDeps struct {
	AuthService         *services.AuthService
	PrescriptionService *services.PrescriptionService
	Hub                 *services.WSHub
	Devices             *repository.DeviceRepository
	IntegrationKey      string
	AllowedOrigins      []string
	MaxImageSize        int64
	SubmitTimeout       time.Duration
}

// NewRouter wires handlers to routes
func NewRouter(d RouterDeps) http.Handler {
	sessionHandler := NewSessionHandler(d.AuthService)
	prescriptionHandler := NewPrescriptionHandler(d.PrescriptionService, d.MaxImageSize, d.SubmitTimeout)
	pharmacyHandler := NewPharmacyHandler(d.PrescriptionService)
	notificationHandler := NewNotificationHandler(d.PrescriptionService, d.Hub)
	deviceHandler := NewDeviceHandler(d.Devices)
	integrationHandler := NewIntegrationHandler(d.PrescriptionService)
	wsHandler := NewWebSocketHandler(d.Hub, d.AuthService, d.PrescriptionService)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.IntegrationKeyHeader},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/sessions", sessionHandler.CreateSession)
		r.Get("/pharmacies", pharmacyHandler.GetPharmacies)
		r.Get("/pharmacies/{pharmacy_id}", pharmacyHandler.GetPharmacy)

		// Patient routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.AuthService))
			r.Post("/prescriptions", prescriptionHandler.UploadPrescription)
			r.Get("/prescriptions", prescriptionHandler.GetPrescriptions)
			r.Get("/prescriptions/{prescription_id}", prescriptionHandler.GetPrescription)
			r.Put("/prescriptions/{prescription_id}/pharmacy", prescriptionHandler.SelectPharmacy)
			r.Get("/notifications", notificationHandler.GetNotifications)
			r.Post("/notifications/read", notificationHandler.MarkAllAsRead)
			r.Post("/notifications/{notification_id}/read", notificationHandler.MarkAsRead)
			r.Put("/devices", deviceHandler.RegisterDevice)
		})

		// Pharmacy integration routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.IntegrationKeyMiddleware(d.IntegrationKey))
			r.Post("/integration/prescriptions/{prescription_id}/status", integrationHandler.UpdateStatus)
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}
