// Package store persists training runs and weight checkpoints in a single
// SQLite file. Records travel as versioned JSON payloads; a few scalar
// columns are duplicated so listing never decodes a payload.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("store path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveRun upserts a run record, assigning an ID and creation time when the
// record carries none.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	run.SchemaVersion = CurrentSchemaVersion

	payload, err := EncodeRun(*run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, schema_version, created, dataset, optimizer, epochs, final_train, final_val, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			created = excluded.created,
			dataset = excluded.dataset,
			optimizer = excluded.optimizer,
			epochs = excluded.epochs,
			final_train = excluded.final_train,
			final_val = excluded.final_val,
			payload = excluded.payload
	`, run.ID, run.SchemaVersion, run.Created.UnixNano(), run.Dataset, run.Optimizer, run.Epochs, run.FinalTrain, run.FinalVal, payload)
	return err
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return Run{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

// RunSummary is the listing view of a run, read from the scalar columns.
type RunSummary struct {
	ID         string
	Created    time.Time
	Dataset    string
	Optimizer  string
	Epochs     int
	FinalTrain float64
	FinalVal   float64
}

// ListRuns returns run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, created, dataset, optimizer, epochs, final_train, final_val
		FROM runs
		ORDER BY created DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var r RunSummary
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Dataset, &r.Optimizer, &r.Epochs, &r.FinalTrain, &r.FinalVal); err != nil {
			return nil, err
		}
		r.Created = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveCheckpoint upserts the weight set for a run.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *Checkpoint) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if cp.RunID == "" {
		return errors.New("checkpoint requires a run id")
	}
	if cp.Saved.IsZero() {
		cp.Saved = time.Now()
	}
	cp.SchemaVersion = CurrentSchemaVersion

	payload, err := EncodeCheckpoint(*cp)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, schema_version, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload = excluded.payload
	`, cp.RunID, cp.SchemaVersion, payload)
	return err
}

func (s *Store) GetCheckpoint(ctx context.Context, runID string) (Checkpoint, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Checkpoint{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, err
	}

	cp, err := DecodeCheckpoint(payload)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", runID, err)
	}
	return cp, true, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			created INTEGER NOT NULL,
			dataset TEXT NOT NULL,
			optimizer TEXT NOT NULL,
			epochs INTEGER NOT NULL,
			final_train REAL NOT NULL,
			final_val REAL NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
