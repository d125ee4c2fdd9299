package repository

import (
	"context"
	"fmt"
	"sync"

	"rxtrack-backend/internal/models"
)

// NotificationRepository keeps notifications in memory, most recent first
type NotificationRepository struct {
	mu    sync.RWMutex
	items []models.Notification
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

// Create stores a new notification at the front of the collection
func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("failed to create notification: missing id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append([]models.Notification{cloneNotification(n)}, r.items...)
	return nil
}

// ListByUser returns a snapshot of a user's notifications
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Notification, 0)
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, cloneNotification(n))
		}
	}
	return out
}

// CountUnread returns the number of unread notifications for a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count
}

// MarkRead sets the read flag on a user's notification
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// MarkAllRead marks every unread notification of a user as read and
// returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].Read {
			r.items[i].Read = true
			changed++
		}
	}
	return changed
}

func cloneNotification(n models.Notification) models.Notification {
	if n.Link != nil {
		link := *n.Link
		n.Link = &link
	}
	return n
}
