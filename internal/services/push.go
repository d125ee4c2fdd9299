package services

import (
	"context"
	"errors"
	"fmt"

	"rxtrack-backend/internal/models"
	"rxtrack-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

type pushFunc func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error)

// APNsPusher sends notifications to every iOS device a user registered
type APNsPusher struct {
	push    pushFunc
	topic   string
	devices *repository.DeviceRepository
}

// NewAPNsPusher creates a pusher from a .p12 certificate
func NewAPNsPusher(certPath, password, topic string, production bool, devices *repository.DeviceRepository) (*APNsPusher, error) {
	cert, err := certificate.FromP12File(certPath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{
		push: func(ctx context.Context, n *apns2.Notification) (*apns2.Response, error) {
			return client.PushWithContext(ctx, n)
		},
		topic:   topic,
		devices: devices,
	}, nil
}

// Notify pushes n to the user's devices. Tokens APNs reports as dead are
// dropped.
func (p *APNsPusher) Notify(ctx context.Context, n models.Notification) error {
	tokens := p.devices.GetPushTokens(ctx, n.UserID)
	if len(tokens) == 0 {
		return nil
	}

	pl := payload.NewPayload().
		AlertBody(n.Message).
		Sound("default").
		Custom("notification_id", n.ID).
		Custom("type", string(n.Kind))
	if n.Link != nil {
		pl = pl.Custom("link", *n.Link)
	}

	var errs []error
	for _, token := range tokens {
		res, err := p.push(ctx, &apns2.Notification{
			DeviceToken: token,
			Topic:       p.topic,
			Payload:     pl,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to push to device: %w", err))
			continue
		}
		if res.Sent() {
			continue
		}

		if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
			p.devices.RemovePushToken(ctx, n.UserID, token)
			log.Info().Str("user_id", n.UserID).Str("reason", res.Reason).Msg("Dropped dead push token")
			continue
		}
		errs = append(errs, fmt.Errorf("apns rejected push: %d %s", res.StatusCode, res.Reason))
	}

	return errors.Join(errs...)
}
