package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

func TestStorage_Templates(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	social := factory.CreateTemplate(t, "Story Sale", models.CategorySocialMedia, false, true)
	premium := factory.CreateTemplate(t, "Gold Poster", models.CategoryPrint, true, true)
	inactive := factory.CreateTemplate(t, "Old Banner", models.CategoryWeb, false, false)

	t.Run("get keeps template data", func(t *testing.T) {
		got, err := storage.GetTemplate(ctx, social.ID)
		require.NoError(t, err)
		assert.Equal(t, "Story Sale", got.Name)
		assert.Contains(t, got.TemplateData, "layers")

		_, err = storage.GetTemplate(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("list defaults to active only", func(t *testing.T) {
		items, total, err := storage.ListTemplates(ctx, models.TemplateFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, it := range items {
			assert.NotEqual(t, inactive.ID, it.ID)
		}
	})

	t.Run("list filters", func(t *testing.T) {
		yes := true
		items, total, err := storage.ListTemplates(ctx, models.TemplateFilter{IsPremium: &yes})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, premium.ID, items[0].ID)

		cat := models.CategorySocialMedia
		items, total, err = storage.ListTemplates(ctx, models.TemplateFilter{Category: &cat})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, social.ID, items[0].ID)

		items, total, err = storage.ListTemplates(ctx, models.TemplateFilter{Search: "gold"})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, premium.ID, items[0].ID)

		no := false
		_, total, err = storage.ListTemplates(ctx, models.TemplateFilter{IsActive: &no})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("list sorted by name with paging", func(t *testing.T) {
		items, total, err := storage.ListTemplates(ctx, models.TemplateFilter{
			SortBy:     "Name",
			Pagination: models.Pagination{Page: 1, PageSize: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Gold Poster", items[0].Name)
	})

	t.Run("featured and by category skip inactive", func(t *testing.T) {
		featured, err := storage.FeaturedTemplates(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, featured, 2)
		assert.Equal(t, premium.ID, featured[0].ID)

		web, err := storage.TemplatesByCategory(ctx, models.CategoryWeb, 20)
		require.NoError(t, err)
		assert.Empty(t, web)
	})

	t.Run("partial update and toggle", func(t *testing.T) {
		name := "Story Sale v2"
		got, err := storage.UpdateTemplate(ctx, social.ID, models.TemplatePatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		assert.Equal(t, social.Category, got.Category)
		assert.Equal(t, social.ThumbnailURL, got.ThumbnailURL)

		toggled, err := storage.ToggleTemplateActive(ctx, inactive.ID)
		require.NoError(t, err)
		assert.True(t, toggled.IsActive)

		_, err = storage.ToggleTemplateActive(ctx, "bad")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
