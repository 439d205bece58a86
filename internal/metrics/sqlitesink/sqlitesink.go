// Package sqlitesink stores metric dumps in a SQLite database, one row per
// (tick, column) sample.
package sqlitesink

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cxd309/transit-sim/internal/metrics"
)

const schema = `CREATE TABLE IF NOT EXISTS metric_samples (
	run_id TEXT NOT NULL,
	entity TEXT NOT NULL,
	name   TEXT NOT NULL,
	tick   INTEGER NOT NULL,
	metric TEXT NOT NULL,
	value  REAL NOT NULL
)`

// Sample is one stored value.
type Sample struct {
	RunID  string  `db:"run_id"`
	Entity string  `db:"entity"`
	Name   string  `db:"name"`
	Tick   int     `db:"tick"`
	Metric string  `db:"metric"`
	Value  float64 `db:"value"`
}

// Sink writes dumps to a SQLite database.
type Sink struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Sink, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening metrics database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating metrics schema: %w", err)
	}
	return &Sink{db: db}, nil
}

// Close closes the database.
func (s *Sink) Close() error { return s.db.Close() }

// WriteDump replaces any earlier dump of the same run, entity and name.
func (s *Sink) WriteDump(d metrics.Dump) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM metric_samples WHERE run_id = ? AND entity = ? AND name = ?`,
		d.RunID, d.Entity, d.Name); err != nil {
		tx.Rollback()
		return err
	}

	const q = `INSERT INTO metric_samples (run_id, entity, name, tick, metric, value)
		   VALUES (?, ?, ?, ?, ?, ?)`

	for i, row := range d.Table.Rows {
		for j, v := range row {
			if _, err := tx.Exec(q, d.RunID, d.Entity, d.Name, d.Table.Ticks[i], d.Table.Columns[j], v); err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// Samples returns the stored samples of one dump ordered by tick and metric.
func (s *Sink) Samples(runID, entity, name string) ([]Sample, error) {
	var out []Sample
	err := s.db.Select(&out, `SELECT run_id, entity, name, tick, metric, value
		FROM metric_samples
		WHERE run_id = ? AND entity = ? AND name = ?
		ORDER BY tick, metric`, runID, entity, name)
	return out, err
}
