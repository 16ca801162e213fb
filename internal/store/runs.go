package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tupyy/artifact-collector/internal/models"
)

// RunStore keeps the ledger of collection runs and their results.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Create records a new run. Units and results are not written.
func (s *RunStore) Create(ctx context.Context, run *models.Run) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun, run.ID, string(run.State), run.CreatedAt.UTC())
	return err
}

// Finish sets the final state of a run and replaces its results.
func (s *RunStore) Finish(ctx context.Context, id string, state models.RunState, finishedAt time.Time, results []models.CollectedPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, queryFinishRun, string(state), finishedAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, queryDeleteResults, id); err != nil {
		return err
	}
	for i, r := range results {
		if _, err := tx.ExecContext(ctx, queryInsertResult, id, i, r.Path, r.Label); err != nil {
			return fmt.Errorf("saving result %s: %w", r.Path, err)
		}
	}

	return tx.Commit()
}

// Get returns the run with its units and results.
func (s *RunStore) Get(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, queryGetRun, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	run.Units, err = listUnits(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	run.Results, err = s.listResults(ctx, id)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// List returns every run, newest first, without units and results.
func (s *RunStore) List(ctx context.Context) ([]models.Run, error) {
	rows, err := s.db.QueryContext(ctx, queryListRuns)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *RunStore) listResults(ctx context.Context, id string) ([]models.CollectedPath, error) {
	rows, err := s.db.QueryContext(ctx, queryListResults, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.CollectedPath
	for rows.Next() {
		var r models.CollectedPath
		if err := rows.Scan(&r.Path, &r.Label); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run      models.Run
		state    string
		finished sql.NullTime
	)
	if err := row.Scan(&run.ID, &state, &run.CreatedAt, &finished); err != nil {
		return nil, err
	}
	run.State = models.RunState(state)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
