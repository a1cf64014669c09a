// Package db manages the local SQLite cache of the catalog
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createModelsTable(); err != nil {
		return err
	}
	if err := db.createPurchasesTable(); err != nil {
		return err
	}
	return db.createCatalogSyncsTable()
}

// models holds the last catalog snapshot. Rows that drop out of a snapshot
// are marked removed rather than deleted so first_seen history survives.
func (db *DB) createModelsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT '',
		framework TEXT NOT NULL DEFAULT '',
		use_case TEXT NOT NULL DEFAULT '',
		dataset TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		price REAL DEFAULT 0,
		purchased INTEGER DEFAULT 0,
		created_at DATETIME,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		removed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_models_position ON models(position);
	CREATE INDEX IF NOT EXISTS idx_models_first_seen ON models(first_seen);
	CREATE INDEX IF NOT EXISTS idx_models_created_by ON models(created_by);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createPurchasesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		remote_id TEXT,
		model_id TEXT NOT NULL,
		model_name TEXT NOT NULL DEFAULT '',
		buyer_email TEXT NOT NULL,
		buyer_name TEXT,
		price REAL DEFAULT 0,
		purchased_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(model_id, buyer_email)
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_buyer ON purchases(buyer_email);
	CREATE INDEX IF NOT EXISTS idx_purchases_time ON purchases(purchased_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createCatalogSyncsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog_syncs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		synced_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		source TEXT NOT NULL DEFAULT '',
		total_models INTEGER DEFAULT 0,
		total_purchases INTEGER DEFAULT 0,
		new_models INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_syncs_time ON catalog_syncs(synced_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
