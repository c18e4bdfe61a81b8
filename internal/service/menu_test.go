package service

import (
	"context"
	"testing"

	"bamboowoods/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuService(t *testing.T) {
	ctx := context.Background()
	svc := NewMenuService(setupTestDB(t), nil)

	add := func(name, category string, price int64) *models.MenuItem {
		item := &models.MenuItem{Name: name, Category: category, Price: price, IsAvailable: false}
		require.NoError(t, svc.Create(ctx, item))
		return item
	}

	tilapia := add("Whole Tilapia", "Main Course", 1200)
	samosa := add(" Samosa ", "Starters", 150)
	mandazi := add("Mandazi", "Breakfast", 50)
	_ = add("Passion Juice", "Drinks", 200)

	t.Run("new items are available", func(t *testing.T) {
		assert.True(t, tilapia.IsAvailable)
		assert.Equal(t, "Samosa", samosa.Name)
	})

	t.Run("public menu groups in display order", func(t *testing.T) {
		require.NoError(t, svc.SetAvailability(ctx, mandazi.ID, true))
		sections, err := svc.Public(ctx)
		require.NoError(t, err)

		var categories []string
		for _, s := range sections {
			categories = append(categories, s.Category)
		}
		assert.Equal(t, []string{"Starters", "Main Course", "Drinks"}, categories)
	})

	t.Run("hidden items leave the public menu only", func(t *testing.T) {
		require.NoError(t, svc.SetAvailability(ctx, samosa.ID, false))

		sections, err := svc.Public(ctx)
		require.NoError(t, err)
		for _, s := range sections {
			assert.NotEqual(t, "Starters", s.Category)
		}

		all, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("update keeps availability", func(t *testing.T) {
		edit := &models.MenuItem{ID: samosa.ID, Name: "Beef Samosa", Category: "Starters", Price: 180, IsAvailable: true}
		require.NoError(t, svc.Update(ctx, edit))
		assert.Equal(t, "Beef Samosa", edit.Name)
		assert.Equal(t, int64(180), edit.Price)
		assert.False(t, edit.IsAvailable)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []*models.MenuItem{
			{Name: "", Category: "Drinks", Price: 10},
			{Name: "Tea", Category: "Drinks", Price: 0},
			{Name: "Tea", Category: " ", Price: 10},
		}
		for _, c := range cases {
			assert.ErrorIs(t, svc.Create(ctx, c), ErrValidation)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, tilapia.ID))
		assert.ErrorIs(t, svc.Delete(ctx, tilapia.ID), ErrNotFound)
		assert.ErrorIs(t, svc.SetAvailability(ctx, tilapia.ID, true), ErrNotFound)
	})
}
