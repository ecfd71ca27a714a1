package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
	"github.com/lawnchairsociety/worldfacts/internal/structure"
)

var (
	ErrRunNotFound = errors.New("database: fact run not found")
	ErrRunExists   = errors.New("database: fact run already stored")
)

// Run describes one stored pipeline run.
type Run struct {
	ID        int64
	Digest    string
	MapName   string
	Height    int
	Width     int
	FactCount int
	CreatedAt time.Time
}

// SaveRun stores facts for the map with the given digest, replacing any
// earlier run for the same digest. Facts keep their order.
func (d *Database) SaveRun(run Run, fs []facts.Fact) (int64, error) {
	return d.storeRun(run, fs, true)
}

// InsertRun stores a run like SaveRun but returns ErrRunExists when the
// digest is already stored.
func (d *Database) InsertRun(run Run, fs []facts.Fact) (int64, error) {
	return d.storeRun(run, fs, false)
}

func (d *Database) storeRun(run Run, fs []facts.Fact, replace bool) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		// foreign_keys is per connection in SQLite, so child rows go first.
		if _, err := tx.Exec(d.dialect.rebind("DELETE FROM facts WHERE run_id IN (SELECT id FROM fact_runs WHERE map_digest = ?)"), run.Digest); err != nil {
			return 0, fmt.Errorf("failed to clear previous facts: %w", err)
		}
		if _, err := tx.Exec(d.dialect.rebind("DELETE FROM fact_runs WHERE map_digest = ?"), run.Digest); err != nil {
			return 0, fmt.Errorf("failed to clear previous run: %w", err)
		}
	}

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	insertRun := d.dialect.insertID(
		"INSERT INTO fact_runs (map_digest, map_name, height, width, fact_count, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	args := []any{run.Digest, run.MapName, run.Height, run.Width, len(fs), created.Unix()}

	var runID int64
	if !d.dialect.returningID {
		res, err := tx.Exec(insertRun, args...)
		if err != nil {
			return 0, d.wrapInsertError(err)
		}
		if runID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read run id: %w", err)
		}
	} else if err := tx.QueryRow(insertRun, args...).Scan(&runID); err != nil {
		return 0, d.wrapInsertError(err)
	}

	stmt, err := tx.Prepare(d.dialect.rebind(`INSERT INTO facts
		(run_id, position, structure_type, sequence_id, min_col, min_row, max_col, max_row, descriptions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fact insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range fs {
		descriptions, err := json.Marshal(f.Descriptions)
		if err != nil {
			return 0, fmt.Errorf("failed to encode descriptions: %w", err)
		}
		box := f.BoundingBox
		if _, err := stmt.Exec(runID, i, f.StructureType, f.SequenceID,
			box.MinCol, box.MinRow, box.MaxCol, box.MaxRow, string(descriptions)); err != nil {
			return 0, fmt.Errorf("failed to insert fact %s %d: %w", f.StructureType, f.SequenceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	logger.Info("Fact run saved", "digest", run.Digest, "map", run.MapName, "facts", len(fs))
	return runID, nil
}

func (d *Database) wrapInsertError(err error) error {
	if d.dialect.isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrRunExists, err)
	}
	return fmt.Errorf("failed to insert run: %w", err)
}

// LoadRun returns the stored run and its facts for digest.
func (d *Database) LoadRun(digest string) (*Run, []facts.Fact, error) {
	run := &Run{}
	var created int64
	err := d.db.QueryRow(
		d.dialect.rebind("SELECT id, map_digest, map_name, height, width, fact_count, created_at FROM fact_runs WHERE map_digest = ?"),
		digest,
	).Scan(&run.ID, &run.Digest, &run.MapName, &run.Height, &run.Width, &run.FactCount, &created)
	if err == sql.ErrNoRows {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run: %w", err)
	}
	run.CreatedAt = time.Unix(created, 0)

	rows, err := d.db.Query(
		d.dialect.rebind(`SELECT structure_type, sequence_id, min_col, min_row, max_col, max_row, descriptions
			FROM facts WHERE run_id = ? ORDER BY position`),
		run.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load facts: %w", err)
	}
	defer rows.Close()

	var out []facts.Fact
	for rows.Next() {
		var f facts.Fact
		var box structure.BoundingBox
		var descriptions string
		if err := rows.Scan(&f.StructureType, &f.SequenceID, &box.MinCol, &box.MinRow, &box.MaxCol, &box.MaxRow, &descriptions); err != nil {
			return nil, nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		if err := json.Unmarshal([]byte(descriptions), &f.Descriptions); err != nil {
			return nil, nil, fmt.Errorf("failed to decode descriptions: %w", err)
		}
		f.BoundingBox = box
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read facts: %w", err)
	}

	return run, out, nil
}

// ListRuns returns every stored run, newest first.
func (d *Database) ListRuns() ([]Run, error) {
	rows, err := d.db.Query("SELECT id, map_digest, map_name, height, width, fact_count, created_at FROM fact_runs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Digest, &r.MapName, &r.Height, &r.Width, &r.FactCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes the run stored for digest.
func (d *Database) DeleteRun(digest string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(d.dialect.rebind("DELETE FROM facts WHERE run_id IN (SELECT id FROM fact_runs WHERE map_digest = ?)"), digest); err != nil {
		return fmt.Errorf("failed to delete facts: %w", err)
	}
	res, err := tx.Exec(d.dialect.rebind("DELETE FROM fact_runs WHERE map_digest = ?"), digest)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted runs: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}

	return tx.Commit()
}
