package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rxtrack-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrescriptionRepositoryMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewPrescriptionRepository()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Prescription{
			ID:     fmt.Sprintf("rx-%d", i),
			UserID: "u1",
			Status: models.StatusPending,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "other", UserID: "u2"}))

	list := repo.ListByUser(ctx, "u1", nil)
	require.Len(t, list, 5)
	for i, p := range list {
		assert.Equal(t, fmt.Sprintf("rx-%d", 4-i), p.ID)
	}
}

func TestPrescriptionRepositoryRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewPrescriptionRepository()

	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "rx-1"}))
	assert.Error(t, repo.Create(ctx, &models.Prescription{ID: "rx-1"}))
	assert.Error(t, repo.Create(ctx, &models.Prescription{}))
}

func TestPrescriptionRepositoryListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewPrescriptionRepository()

	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "a", UserID: "u1", Status: models.StatusPending}))
	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "b", UserID: "u1", Status: models.StatusProcessing}))

	processing := models.StatusProcessing
	list := repo.ListByUser(ctx, "u1", &processing)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestPrescriptionRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPrescriptionRepository()
	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "rx-1", UserID: "u1", Status: models.StatusPending}))

	got, err := repo.GetByID(ctx, "rx-1")
	require.NoError(t, err)
	got.Status = models.StatusDelivered

	list := repo.ListByUser(ctx, "u1", nil)
	list[0].Status = models.StatusDelivered

	again, err := repo.GetByID(ctx, "rx-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestPrescriptionRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewPrescriptionRepository()
	require.NoError(t, repo.Create(ctx, &models.Prescription{ID: "rx-1", Status: models.StatusPending}))

	updated, err := repo.Update(ctx, "rx-1", func(p *models.Prescription) error {
		p.Status = models.StatusProcessing
		p.UpdatedAt = time.Unix(100, 0)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status)

	boom := errors.New("boom")
	_, err = repo.Update(ctx, "rx-1", func(p *models.Prescription) error {
		p.Status = models.StatusDelivered
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.GetByID(ctx, "rx-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, stored.Status)

	_, err = repo.Update(ctx, "missing", func(p *models.Prescription) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	require.NoError(t, repo.Create(ctx, models.Notification{ID: "n1", UserID: "u1"}))
	require.NoError(t, repo.Create(ctx, models.Notification{ID: "n2", UserID: "u1"}))
	require.NoError(t, repo.Create(ctx, models.Notification{ID: "n3", UserID: "u2"}))

	list := repo.ListByUser(ctx, "u1")
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, 2, repo.CountUnread(ctx, "u1"))

	require.NoError(t, repo.MarkRead(ctx, "u1", "n1"))
	require.NoError(t, repo.MarkRead(ctx, "u1", "n1"))
	assert.Equal(t, 1, repo.CountUnread(ctx, "u1"))

	assert.ErrorIs(t, repo.MarkRead(ctx, "u1", "n3"), ErrNotFound)
	assert.ErrorIs(t, repo.MarkRead(ctx, "u1", "missing"), ErrNotFound)

	assert.Equal(t, 1, repo.MarkAllRead(ctx, "u1"))
	assert.Equal(t, 0, repo.MarkAllRead(ctx, "u1"))
	assert.Equal(t, 1, repo.CountUnread(ctx, "u2"))
}

func TestPharmacyRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := NewPharmacyRepository(nil)

	assert.Len(t, repo.Search(ctx, ""), 3)

	byName := repo.Search(ctx, "family")
	require.Len(t, byName, 1)
	assert.Equal(t, "2", byName[0].ID)

	byAddress := repo.Search(ctx, "MEDICAL blvd")
	require.Len(t, byAddress, 1)
	assert.Equal(t, "Community Health Pharmacy", byAddress[0].Name)

	assert.Empty(t, repo.Search(ctx, "nowhere"))

	p, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "MediCare Pharmacy", p.Name)

	_, err = repo.GetByID(ctx, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository()

	require.NoError(t, repo.UpdatePushToken(ctx, "u1", "tok-a"))
	require.NoError(t, repo.UpdatePushToken(ctx, "u1", "tok-a"))
	require.NoError(t, repo.UpdatePushToken(ctx, "u1", "tok-b"))
	assert.Error(t, repo.UpdatePushToken(ctx, "u1", ""))

	assert.Equal(t, []string{"tok-a", "tok-b"}, repo.GetPushTokens(ctx, "u1"))

	repo.RemovePushToken(ctx, "u1", "tok-a")
	assert.Equal(t, []string{"tok-b"}, repo.GetPushTokens(ctx, "u1"))

	repo.RemovePushToken(ctx, "u1", "tok-b")
	assert.Empty(t, repo.GetPushTokens(ctx, "u1"))
}
