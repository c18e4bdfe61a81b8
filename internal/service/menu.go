package service

import (
	"context"
	"strings"

	"bamboowoods/internal/domain"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
)

type MenuService struct {
	repo   domain.MenuRepository
	logger *zerolog.Logger
}

func NewMenuService(repo domain.MenuRepository, logger *zerolog.Logger) *MenuService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MenuService{repo: repo, logger: logger}
}

// List returns every item, hidden ones included, for the admin editor.
func (s *MenuService) List(ctx context.Context) ([]*models.MenuItem, error) {
	items, err := s.repo.ListMenuItems(ctx, false)
	if err != nil {
		return nil, storeErr("list menu", err)
	}
	return items, nil
}

// Public groups the available items into the public menu sections, in
// display order. Empty sections and other categories are left out.
func (s *MenuService) Public(ctx context.Context) ([]models.MenuSection, error) {
	items, err := s.repo.ListMenuItems(ctx, true)
	if err != nil {
		return nil, storeErr("list available menu", err)
	}

	byCategory := make(map[string][]*models.MenuItem)
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	sections := make([]models.MenuSection, 0, len(models.PublicMenuCategories))
	for _, category := range models.PublicMenuCategories {
		if len(byCategory[category]) == 0 {
			continue
		}
		sections = append(sections, models.MenuSection{Category: category, Items: byCategory[category]})
	}
	return sections, nil
}

// Create adds an item. New items are always available.
func (s *MenuService) Create(ctx context.Context, item *models.MenuItem) error {
	if err := normalizeMenuItem(item); err != nil {
		return err
	}
	item.IsAvailable = true
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return storeErr("create menu item", err)
	}
	s.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("menu item created")
	return nil
}

// Update edits name, price, category and description. The stored
// availability flag is kept and returned on item.
func (s *MenuService) Update(ctx context.Context, item *models.MenuItem) error {
	if err := normalizeMenuItem(item); err != nil {
		return err
	}
	if err := s.repo.UpdateMenuItem(ctx, item); err != nil {
		return storeErr("update menu item", err)
	}
	stored, err := s.repo.GetMenuItem(ctx, item.ID)
	if err != nil {
		return storeErr("get menu item", err)
	}
	*item = *stored
	return nil
}

func (s *MenuService) SetAvailability(ctx context.Context, id int64, available bool) error {
	return storeErr("set menu availability", s.repo.SetMenuItemAvailability(ctx, id, available))
}

func (s *MenuService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return storeErr("delete menu item", err)
	}
	s.logger.Info().Int64("item_id", id).Msg("menu item deleted")
	return nil
}

func normalizeMenuItem(item *models.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.Description = strings.TrimSpace(item.Description)

	switch {
	case item.Name == "":
		return validationf("name is required")
	case item.Price <= 0:
		return validationf("price must be greater than zero")
	case item.Category == "":
		return validationf("category is required")
	}
	return nil
}
