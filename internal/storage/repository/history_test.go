package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

func TestStorage_History(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	u := factory.CreateUser(t, "writer", models.TierFree, 0, 5)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	factory.CreateHistoryAt(t, u.ID, models.ActionProjectCreated, base.Add(-2*time.Hour))
	factory.CreateHistoryAt(t, u.ID, models.ActionProjectUpdated, base.Add(-time.Hour))
	factory.CreateHistoryAt(t, u.ID, models.ActionProjectExported, base)
	factory.CreateHistoryAt(t, u.ID, models.ActionProjectUpdated, base.Add(time.Hour))

	t.Run("append returns id and time", func(t *testing.T) {
		other := factory.CreateUser(t, "appender", models.TierFree, 0, 5)
		e, err := storage.AppendHistory(ctx, models.HistoryEntry{
			UserID: other.ID, ActionType: models.ActionTemplateUsed,
			ActionData: models.Document{"templateName": "Story"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())

		recent, err := storage.RecentHistory(ctx, other.ID, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "Story", recent[0].ActionData["templateName"])
		assert.Nil(t, recent[0].ProjectID)
	})

	t.Run("query by action type", func(t *testing.T) {
		updated := models.ActionProjectUpdated
		items, total, err := storage.ListHistory(ctx, u.ID, models.HistoryFilter{ActionType: &updated})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))
	})

	t.Run("query by date range ascending", func(t *testing.T) {
		from := base.Add(-time.Hour)
		to := base
		items, total, err := storage.ListHistory(ctx, u.ID, models.HistoryFilter{
			From: &from, To: &to, SortBy: "createdat",
		})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		assert.Equal(t, models.ActionProjectUpdated, items[0].ActionType)
		assert.Equal(t, models.ActionProjectExported, items[1].ActionType)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		items, err := storage.RecentHistory(ctx, u.ID, 2)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, items[0].CreatedAt.Equal(base.Add(time.Hour)))
	})

	t.Run("delete older than is strict", func(t *testing.T) {
		n, err := storage.DeleteHistory(ctx, u.ID, &base)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		items, total, err := storage.ListHistory(ctx, u.ID, models.HistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, it := range items {
			assert.False(t, it.CreatedAt.Before(base))
		}
	})

	t.Run("delete all", func(t *testing.T) {
		n, err := storage.DeleteHistory(ctx, u.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 0, NewTestVerification(storage).HistoryCount(t, u.ID))
	})
}
