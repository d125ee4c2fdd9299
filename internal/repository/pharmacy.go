package repository

import (
	"context"
	"fmt"
	"strings"

	"rxtrack-backend/internal/models"
)

// PharmacyRepository serves the static pharmacy catalog. It is read-only
// after construction, so no locking is needed.
type PharmacyRepository struct {
	items []models.Pharmacy
}

// NewPharmacyRepository creates a catalog from the given pharmacies, falling
// back to DefaultPharmacies when the list is empty
func NewPharmacyRepository(pharmacies []models.Pharmacy) *PharmacyRepository {
	if len(pharmacies) == 0 {
		pharmacies = DefaultPharmacies()
	}
	items := make([]models.Pharmacy, len(pharmacies))
	for i, p := range pharmacies {
		items[i] = p.Clone()
	}
	return &PharmacyRepository{items: items}
}

// DefaultPharmacies returns the built-in catalog
func DefaultPharmacies() []models.Pharmacy {
	pharmacy := func(id, name, address, phone, distance string, rating float64) models.Pharmacy {
		return models.Pharmacy{
			ID:       id,
			Name:     name,
			Address:  address,
			Phone:    phone,
			Distance: &distance,
			Rating:   &rating,
		}
	}
	return []models.Pharmacy{
		pharmacy("1", "MediCare Pharmacy", "123 Health St", "555-123-4567", "0.8 miles", 4.7),
		pharmacy("2", "Family Care Pharmacy", "456 Wellness Ave", "555-987-6543", "1.2 miles", 4.5),
		pharmacy("3", "Community Health Pharmacy", "789 Medical Blvd", "555-456-7890", "2.3 miles", 4.8),
	}
}

// GetByID retrieves a pharmacy by ID
func (r *PharmacyRepository) GetByID(ctx context.Context, id string) (*models.Pharmacy, error) {
	for _, p := range r.items {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, fmt.Errorf("pharmacy %s: %w", id, ErrNotFound)
}

// Search returns pharmacies whose name or address contains query,
// case-insensitively. An empty query returns the whole catalog.
func (r *PharmacyRepository) Search(ctx context.Context, query string) []models.Pharmacy {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Pharmacy, 0, len(r.items))
	for _, p := range r.items {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Address), q) {
			out = append(out, p.Clone())
		}
	}
	return out
}
