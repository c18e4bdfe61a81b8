package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bamboowoods/internal/models"
)

func (db *DB) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.PasswordHash == "" {
		return fmt.Errorf("%w: email and password hash are required", ErrInvalidInput)
	}

	var exists int
	err := db.queryRow(ctx, `SELECT COUNT(*) FROM admins WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if exists > 0 {
		return ErrDuplicate
	}

	now := time.Now().UTC()
	id, err := db.insert(ctx, `INSERT INTO admins (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, admin.PasswordHash, now)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	admin.ID = id
	admin.Email = email
	admin.CreatedAt = now
	return nil
}

func (db *DB) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	query := `SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`
	err := db.queryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

func (db *DB) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := db.exec(ctx, `UPDATE admins SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	return affectedOrNotFound(result)
}
