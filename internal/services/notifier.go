package services

import (
	"context"
	"errors"
	"sync"

	"rxtrack-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// NotificationSink delivers a freshly created notification to the user
type NotificationSink interface {
	Notify(ctx context.Context, n models.Notification) error
}

// MultiSink fans a notification out to every sink and joins their errors
type MultiSink []NotificationSink

// Notify calls every sink, even if an earlier one failed
func (m MultiSink) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncSink delivers through a slow sink without holding up the caller.
// Failures are logged since nobody is left to receive them.
type AsyncSink struct {
	sink NotificationSink
	wg   sync.WaitGroup
}

// NewAsyncSink wraps sink so Notify returns immediately
func NewAsyncSink(sink NotificationSink) *AsyncSink {
	return &AsyncSink{sink: sink}
}

// Notify starts delivery in the background and always returns nil
func (a *AsyncSink) Notify(ctx context.Context, n models.Notification) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.sink.Notify(context.WithoutCancel(ctx), n); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", n.UserID).
				Str("notification_id", n.ID).
				Msg("Failed to deliver notification")
		}
	}()
	return nil
}

// Wait blocks until every started delivery has finished
func (a *AsyncSink) Wait() {
	a.wg.Wait()
}
