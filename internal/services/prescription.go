package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rxtrack-backend/internal/models"
	"rxtrack-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultDeliveryLead is how far ahead the delivery estimate is set when a
// pharmacy is selected
const DefaultDeliveryLead = 48 * time.Hour

// PrescriptionService is the prescription store: it owns the prescription,
// pharmacy and notification collections and every state change to them
type PrescriptionService struct {
	prescriptions *repository.PrescriptionRepository
	notifications *repository.NotificationRepository
	pharmacies    *repository.PharmacyRepository
	submitter     Submitter
	sink          NotificationSink
	deliveryLead  time.Duration
	now           func() time.Time
}

// PrescriptionOption customizes a PrescriptionService
type PrescriptionOption func(*PrescriptionService)

// WithNotificationSink sets where new notifications are pushed
func WithNotificationSink(sink NotificationSink) PrescriptionOption {
	return func(s *PrescriptionService) { s.sink = sink }
}

// WithDeliveryLead overrides DefaultDeliveryLead
func WithDeliveryLead(d time.Duration) PrescriptionOption {
	return func(s *PrescriptionService) {
		if d > 0 {
			s.deliveryLead = d
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) PrescriptionOption {
	return func(s *PrescriptionService) { s.now = now }
}

// NewPrescriptionService creates a new prescription service
func NewPrescriptionService(
	prescriptions *repository.PrescriptionRepository,
	notifications *repository.NotificationRepository,
	pharmacies *repository.PharmacyRepository,
	submitter Submitter,
	opts ...PrescriptionOption,
) *PrescriptionService {
	s := &PrescriptionService{
		prescriptions: prescriptions,
		notifications: notifications,
		pharmacies:    pharmacies,
		submitter:     submitter,
		deliveryLead:  DefaultDeliveryLead,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload submits the image and records a new pending prescription
func (s *PrescriptionService) Upload(ctx context.Context, userID string, image Image) (*models.Prescription, error) {
	imageURL, err := s.submitter.Submit(ctx, userID, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	now := s.now()
	prescription := &models.Prescription{
		ID:        uuid.New().String(),
		UserID:    userID,
		ImageURL:  imageURL,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		return nil, fmt.Errorf("failed to store prescription: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("prescription_id", prescription.ID).
		Str("filename", image.Filename).
		Msg("Prescription uploaded")

	s.emit(ctx, userID, prescription.ID, models.KindSuccess,
		"Your prescription has been uploaded successfully.")

	return prescription, nil
}

// SelectPharmacy assigns a pharmacy and moves the prescription to processing.
// Nothing changes and no notification is emitted if any check fails.
func (s *PrescriptionService) SelectPharmacy(ctx context.Context, userID, prescriptionID, pharmacyID string) (*models.Prescription, error) {
	pharmacy, err := s.pharmacies.GetByID(ctx, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPharmacyNotFound, pharmacyID)
	}

	now := s.now()
	updated, err := s.prescriptions.Update(ctx, prescriptionID, func(p *models.Prescription) error {
		if p.UserID != userID {
			return ErrPrescriptionNotFound
		}
		if !p.Status.CanTransitionTo(models.StatusProcessing) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, models.StatusProcessing)
		}

		due := now.Add(s.deliveryLead)
		p.PharmacyID = &pharmacy.ID
		p.Pharmacy = pharmacy
		p.Status = models.StatusProcessing
		p.UpdatedAt = now
		p.DeliveryDate = &due
		return nil
	})
	if err != nil {
		return nil, prescriptionError(prescriptionID, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("prescription_id", prescriptionID).
		Str("pharmacy_id", pharmacyID).
		Time("delivery_date", *updated.DeliveryDate).
		Msg("Pharmacy selected")

	s.emit(ctx, userID, prescriptionID, models.KindInfo,
		fmt.Sprintf("Your prescription is being processed by %s.", pharmacy.Name))

	return updated, nil
}

// AdvanceStatus moves a prescription to ready or delivered on behalf of the
// fulfilling pharmacy
func (s *PrescriptionService) AdvanceStatus(ctx context.Context, prescriptionID string, status models.Status) (*models.Prescription, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status != models.StatusReady && status != models.StatusDelivered {
		return nil, fmt.Errorf("%w: %s can only be set by the patient flow", ErrInvalidStatusTransition, status)
	}

	now := s.now()
	updated, err := s.prescriptions.Update(ctx, prescriptionID, func(p *models.Prescription) error {
		if !p.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, status)
		}
		p.Status = status
		p.UpdatedAt = now
		if status == models.StatusDelivered {
			delivered := now
			p.DeliveryDate = &delivered
		}
		return nil
	})
	if err != nil {
		return nil, prescriptionError(prescriptionID, err)
	}

	log.Info().
		Str("user_id", updated.UserID).
		Str("prescription_id", prescriptionID).
		Str("status", string(status)).
		Msg("Prescription status advanced")

	var message string
	switch status {
	case models.StatusReady:
		pharmacyName := "your pharmacy"
		if updated.Pharmacy != nil {
			pharmacyName = updated.Pharmacy.Name
		}
		message = fmt.Sprintf("Your prescription is ready at %s.", pharmacyName)
	case models.StatusDelivered:
		message = "Your prescription has been delivered."
	}
	s.emit(ctx, updated.UserID, prescriptionID, models.KindSuccess, message)

	return updated, nil
}

// GetPrescription returns one of the user's prescriptions
func (s *PrescriptionService) GetPrescription(ctx context.Context, userID, prescriptionID string) (*models.Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, prescriptionID)
	if err != nil || p.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrPrescriptionNotFound, prescriptionID)
	}
	return p, nil
}

// ListPrescriptions returns the user's prescriptions, most recent first
func (s *PrescriptionService) ListPrescriptions(ctx context.Context, userID string, status *models.Status) ([]*models.Prescription, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}
	return s.prescriptions.ListByUser(ctx, userID, status), nil
}

// ListPharmacies searches the pharmacy catalog by name or address
func (s *PrescriptionService) ListPharmacies(ctx context.Context, query string) []models.Pharmacy {
	return s.pharmacies.Search(ctx, query)
}

// GetPharmacy returns a single pharmacy
func (s *PrescriptionService) GetPharmacy(ctx context.Context, pharmacyID string) (*models.Pharmacy, error) {
	p, err := s.pharmacies.GetByID(ctx, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPharmacyNotFound, pharmacyID)
	}
	return p, nil
}

// ListNotifications returns all of the user's notifications, newest first
func (s *PrescriptionService) ListNotifications(ctx context.Context, userID string) []models.Notification {
	return s.notifications.ListByUser(ctx, userID)
}

// UnreadCount returns how many of the user's notifications are unread
func (s *PrescriptionService) UnreadCount(ctx context.Context, userID string) int {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkNotificationAsRead sets the read flag. Calling it again is harmless.
func (s *PrescriptionService) MarkNotificationAsRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
		}
		return err
	}
	return nil
}

// MarkAllNotificationsAsRead marks every notification read and returns how
// many changed
func (s *PrescriptionService) MarkAllNotificationsAsRead(ctx context.Context, userID string) int {
	return s.notifications.MarkAllRead(ctx, userID)
}

// emit records a notification and pushes it to the sink. Delivery failures
// are logged only; the state change they describe has already happened.
func (s *PrescriptionService) emit(ctx context.Context, userID, prescriptionID string, kind models.NotificationKind, message string) {
	link := fmt.Sprintf("/prescriptions/%s", prescriptionID)
	n := models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now(),
		Kind:      kind,
		Link:      &link,
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to store notification")
		return
	}

	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(context.WithoutCancel(ctx), n); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("notification_id", n.ID).
			Msg("Failed to deliver notification")
	}
}

func prescriptionError(prescriptionID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrPrescriptionNotFound) {
		return fmt.Errorf("%w: %s", ErrPrescriptionNotFound, prescriptionID)
	}
	return err
}
