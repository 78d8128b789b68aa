package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"oraia/internal/config"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect  Dialect
	ReadOnly bool
}

// OpenDataset opens the lexicon dataset at path. The file must exist. It is
// opened read-write when the filesystem allows it and read-only otherwise.
func OpenDataset(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFoundError("open dataset", path)
		}
		return nil, fmt.Errorf("open dataset %s: %w: %w", path, ErrOpenFailed, err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		f.Close()
		if db, rwErr := open(NewSQLiteDialect(), DialectConfig{Path: path}); rwErr == nil {
			return db, nil
		}
	} else if !errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("open dataset %s: %w: %w", path, ErrOpenFailed, err)
	}

	return OpenDatasetReadOnly(path)
}

// OpenDatasetReadOnly opens the dataset without write access
func OpenDatasetReadOnly(path string) (*DB, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, NotFoundError("open dataset", path)
	}
	db, err := open(NewReadOnlySQLiteDialect(), DialectConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("open dataset %s read-only: %w", path, err)
	}
	db.ReadOnly = true
	return db, nil
}

// CreateDataset opens the dataset at path, creating the file and its
// schema when missing
func CreateDataset(ctx context.Context, path string) (*DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("create dataset: %w: %w", ErrOpenFailed, err)
	}
	db, err := open(NewSQLiteDialect(), DialectConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	if err := ApplyDatasetSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenUserStore opens the user-state store described by cfg and brings its
// schema up to date. Applied migrations are logged to logger.
func OpenUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DB, error) {
	var dialect Dialect
	var dialectConfig DialectConfig

	switch strings.ToLower(cfg.UserDBType) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		dialectConfig = DialectConfig{URL: cfg.UserDBURL}
	case "mysql":
		dialect = NewMySQLDialect()
		dialectConfig = DialectConfig{URL: cfg.UserDBURL}
	case "sqlite", "sqlite3", "":
		if err := ensureDir(cfg.UserDBPath); err != nil {
			return nil, fmt.Errorf("open user store: %w: %w", ErrOpenFailed, err)
		}
		dialect = NewSQLiteDialect()
		dialectConfig = DialectConfig{Path: cfg.UserDBPath}
	default:
		return nil, fmt.Errorf("open user store: %w: unsupported database type: %s", ErrOpenFailed, cfg.UserDBType)
	}

	db, err := open(dialect, dialectConfig)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	if err := db.RunMigrations(ctx, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func open(dialect Dialect, dialectConfig DialectConfig) (*DB, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrOpenFailed, err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: configure connection: %w", ErrOpenFailed, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// QueryContext executes a query with automatic placeholder rewriting
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// QueryRowContext executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// ExecContext executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT query and returns the new row's ID.
// PostgreSQL has no LastInsertId so a RETURNING clause is appended instead.
func (db *DB) ExecReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	return execReturningID(ctx, db.DB, db.Dialect, query, args...)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execReturningID(ctx context.Context, q execQuerier, dialect Dialect, query string, args ...any) (int64, error) {
	rewrittenQuery := dialect.RewriteQuery(query)

	if dialect.SupportsLastInsertId() {
		result, err := q.ExecContext(ctx, rewrittenQuery, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	rewrittenQuery = strings.TrimSuffix(strings.TrimSpace(rewrittenQuery), ";")
	rewrittenQuery += " RETURNING id"

	var id int64
	if err := q.QueryRowContext(ctx, rewrittenQuery, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
