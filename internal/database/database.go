package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"bamboowoods/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// DB wraps *sql.DB with the queries the service needs. Queries are written
// with ? placeholders and rebound for the active driver.
type DB struct {
	*sql.DB
	driver string
	logger *zerolog.Logger
}

// NewDB opens a SQLite database at path and creates the schema.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+sqliteParams(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every new connection would see its own empty in-memory database
		sqlDB.SetMaxOpenConns(1)
	}

	return initDB(sqlDB, config.DriverSQLite, logger)
}

// NewPostgresDB opens a Postgres database through the pgx stdlib driver.
func NewPostgresDB(cfg config.PostgresConfig, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}
	return initDB(sqlDB, config.DriverPostgres, logger)
}

// Open picks the driver from config.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if cfg.Driver == config.DriverPostgres {
		return NewPostgresDB(cfg.Postgres, logger)
	}
	return NewDB(cfg.Path, logger)
}

func sqliteParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return sep + "_foreign_keys=on&_busy_timeout=5000"
}

func initDB(sqlDB *sql.DB, driver string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: driver, logger: logger}
	if err := db.createTables(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("database initialized")
	return db, nil
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) createTables() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	timestamp := "DATETIME"
	if db.driver == config.DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		timestamp = "TIMESTAMPTZ"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id ` + idColumn + `,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            type TEXT NOT NULL DEFAULT '',
            date TEXT NOT NULL,
            guests INTEGER NOT NULL DEFAULT 0,
            message TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'confirmed', 'cancelled')),
            created_at ` + timestamp + ` NOT NULL,
            updated_at ` + timestamp + ` NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS menu_items (
            id ` + idColumn + `,
            name TEXT NOT NULL,
            price INTEGER NOT NULL,
            category TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            is_available BOOLEAN NOT NULL DEFAULT TRUE
        )`,
		`CREATE TABLE IF NOT EXISTS admins (
            id ` + idColumn + `,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at ` + timestamp + ` NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id ` + idColumn + `,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL,
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at ` + timestamp + ` NOT NULL,
            processed_at ` + timestamp + `,
            next_retry_at ` + timestamp + `
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_category ON menu_items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// rebind converts ? placeholders to $n for Postgres.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (db *DB) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := db.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func affectedOrNotFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
