// Package database stores fact runs so a map that has already been analyzed
// can be served without running the pipeline again. Runs are keyed by the
// composited grid's digest.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/worldfacts/internal/logger"
)

// Database wraps a SQLite or PostgreSQL connection.
type Database struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the backend named by cfg and runs migrations.
func Open(cfg Config) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := dialectFor(DialectType(cfg.Driver))
	if err != nil {
		return nil, err
	}

	var dsn string
	switch backend.kind {
	case DialectPostgres:
		dsn = cfg.Postgres.DSN()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(backend.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if backend.kind == DialectPostgres {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range backend.setup {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: backend}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Fact store opened", "driver", backend.driver)
	return d, nil
}

// OpenSQLite opens or creates a SQLite fact store at path.
func OpenSQLite(path string) (*Database, error) {
	return Open(DefaultConfig(path))
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	key := d.dialect.serialKey
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS fact_runs (
			id ` + key + `,
			map_digest TEXT UNIQUE NOT NULL,
			map_name TEXT NOT NULL DEFAULT '',
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			fact_count INTEGER NOT NULL,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS facts (
			id ` + key + `,
			run_id BIGINT NOT NULL REFERENCES fact_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			structure_type TEXT NOT NULL,
			sequence_id INTEGER NOT NULL,
			min_col INTEGER NOT NULL,
			min_row INTEGER NOT NULL,
			max_col INTEGER NOT NULL,
			max_row INTEGER NOT NULL,
			descriptions TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_facts_run_id ON facts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_structure_type ON facts(structure_type)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
