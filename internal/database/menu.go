package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bamboowoods/internal/models"
)

const menuColumns = `id, name, price, category, description, is_available`

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(&item.ID, &item.Name, &item.Price, &item.Category, &item.Description, &item.IsAvailable)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `INSERT INTO menu_items (name, price, category, description, is_available)
              VALUES (?, ?, ?, ?, ?)`
	id, err := db.insert(ctx, query, item.Name, item.Price, item.Category, item.Description, item.IsAvailable)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ?`
	item, err := scanMenuItem(db.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

// GetMenuItemByName matches the name case-insensitively and returns the
// oldest match.
func (db *DB) GetMenuItemByName(ctx context.Context, name string) (*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE LOWER(name) = LOWER(?) ORDER BY id ASC LIMIT 1`
	item, err := scanMenuItem(db.queryRow(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item by name: %w", err)
	}
	return item, nil
}

// ListMenuItems returns items ordered by category then name. With
// onlyAvailable set, hidden items are left out.
func (db *DB) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items`
	var args []any
	if onlyAvailable {
		query += ` WHERE is_available = ?`
		args = append(args, true)
	}
	query += ` ORDER BY category ASC, name ASC, id ASC`

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}
	return items, nil
}

// UpdateMenuItem rewrites the editable fields. Availability is left as is.
func (db *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `UPDATE menu_items SET name = ?, price = ?, category = ?, description = ? WHERE id = ?`
	result, err := db.exec(ctx, query, item.Name, item.Price, item.Category, item.Description, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	return affectedOrNotFound(result)
}

func (db *DB) SetMenuItemAvailability(ctx context.Context, id int64, available bool) error {
	result, err := db.exec(ctx, `UPDATE menu_items SET is_available = ? WHERE id = ?`, available, id)
	if err != nil {
		return fmt.Errorf("failed to update menu item availability: %w", err)
	}
	return affectedOrNotFound(result)
}

func (db *DB) DeleteMenuItem(ctx context.Context, id int64) error {
	result, err := db.exec(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return affectedOrNotFound(result)
}

// SeedMenu inserts items only when the menu table is empty and reports how
// many were written.
func (db *DB) SeedMenu(ctx context.Context, items []models.MenuItem) (int, error) {
	var count int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	if count > 0 || len(items) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := db.rebind(`INSERT INTO menu_items (name, price, category, description, is_available) VALUES (?, ?, ?, ?, ?)`)
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query, item.Name, item.Price, item.Category, item.Description, item.IsAvailable); err != nil {
			return 0, fmt.Errorf("failed to seed menu item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit menu seed: %w", err)
	}
	return len(items), nil
}
