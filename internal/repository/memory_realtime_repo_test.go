package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTracking_UpsertThenStatus(t *testing.T) {
	repo := repository.NewMemoryTrackingRepository()
	ctx := context.Background()
	at := time.Now().UTC()

	_, err := repo.UpdateStatus(ctx, "o1", "d1", model.TrackingPickedUp, at)
	assert.ErrorIs(t, err, repository.ErrTrackingNotFound)

	doc, err := repo.UpsertLocation(ctx, "o1", "d1", model.Location{Latitude: 30.04, Longitude: 31.23}, at)
	require.NoError(t, err)
	assert.Equal(t, model.TrackingPendingPickup, doc.TrackingStatus)

	doc, err = repo.UpdateStatus(ctx, "o1", "d1", model.TrackingPickedUp, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.TrackingPickedUp, doc.TrackingStatus)

	// a second report keeps the status and the creation time
	doc, err = repo.UpsertLocation(ctx, "o1", "d1", model.Location{Latitude: 30.05, Longitude: 31.24}, at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.TrackingPickedUp, doc.TrackingStatus)
	assert.Equal(t, at, doc.CreatedAt)

	_, err = repo.UpdateStatus(ctx, "o1", "someone-else", model.TrackingDelivered, at)
	assert.ErrorIs(t, err, repository.ErrTrackingNotFound)
}

func TestMemoryChat_HistoryAndMarkRead(t *testing.T) {
	repo := repository.NewMemoryChatRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, &model.ChatMessage{
			Room: "r", SenderID: "a", RecipientID: "b", Message: fmt.Sprintf("m%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Save(ctx, &model.ChatMessage{Room: "other", SenderID: "a", RecipientID: "b", Message: "x", CreatedAt: base}))

	history, err := repo.History(ctx, "r", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "m2", history[0].Message)
	assert.Equal(t, "m4", history[2].Message)

	n, err := repo.MarkRead(ctx, "r", "b", "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = repo.MarkRead(ctx, "r", "b", "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
