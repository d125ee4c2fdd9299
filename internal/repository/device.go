package repository

import (
	"context"
	"fmt"
	"sync"
)

// DeviceRepository holds APNs device tokens per user
type DeviceRepository struct {
	mu     sync.RWMutex
	tokens map[string][]string
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{tokens: make(map[string][]string)}
}

// UpdatePushToken registers a push token for a user. Registering the same
// token twice is a no-op.
func (r *DeviceRepository) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	if pushToken == "" {
		return fmt.Errorf("failed to update push token: empty token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens[userID] {
		if t == pushToken {
			return nil
		}
	}
	r.tokens[userID] = append(r.tokens[userID], pushToken)
	return nil
}

// RemovePushToken forgets a token, e.g. after APNs reports it unregistered
func (r *DeviceRepository) RemovePushToken(ctx context.Context, userID, pushToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := r.tokens[userID]
	for i, t := range tokens {
		if t == pushToken {
			r.tokens[userID] = append(tokens[:i:i], tokens[i+1:]...)
			break
		}
	}
	if len(r.tokens[userID]) == 0 {
		delete(r.tokens, userID)
	}
}

// GetPushTokens returns a copy of a user's registered tokens
func (r *DeviceRepository) GetPushTokens(ctx context.Context, userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.tokens[userID]...)
}
