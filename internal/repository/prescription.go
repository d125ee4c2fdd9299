package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rxtrack-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// PrescriptionRepository keeps prescriptions in memory, most recent first
type PrescriptionRepository struct {
	mu    sync.RWMutex
	items []*models.Prescription
}

// NewPrescriptionRepository creates a new prescription repository
func NewPrescriptionRepository() *PrescriptionRepository {
	return &PrescriptionRepository{}
}

// Create stores a new prescription at the front of the collection
func (r *PrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("failed to create prescription: missing id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ID == p.ID {
			return fmt.Errorf("failed to create prescription: duplicate id %s", p.ID)
		}
	}

	r.items = append([]*models.Prescription{p.Clone()}, r.items...)
	return nil
}

// GetByID retrieves a prescription by ID
func (r *PrescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("prescription %s: %w", id, ErrNotFound)
}

// ListByUser returns a user's prescriptions, optionally filtered by status
func (r *PrescriptionRepository) ListByUser(ctx context.Context, userID string, status *models.Status) []*models.Prescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Prescription, 0)
	for _, p := range r.items {
		if p.UserID != userID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Update applies fn to a copy of the prescription and swaps it in place.
// If fn returns an error the stored record is left untouched.
func (r *PrescriptionRepository) Update(ctx context.Context, id string, fn func(p *models.Prescription) error) (*models.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.items {
		if p.ID != id {
			continue
		}
		updated := p.Clone()
		if err := fn(updated); err != nil {
			return nil, err
		}
		r.items[i] = updated
		return updated.Clone(), nil
	}
	return nil, fmt.Errorf("prescription %s: %w", id, ErrNotFound)
}
