package store

import (
	"context"
	"database/sql"

	"github.com/tupyy/artifact-collector/internal/models"
)

// UnitStore keeps the state of every unit of a run.
type UnitStore struct {
	db *sql.DB
}

func NewUnitStore(db *sql.DB) *UnitStore {
	return &UnitStore{db: db}
}

// Upsert saves the status of a unit. The target of a unit never changes once written.
func (s *UnitStore) Upsert(ctx context.Context, runID string, u models.UnitStatus) error {
	_, err := s.db.ExecContext(ctx, queryUpsertUnit,
		runID, u.Index, string(u.Target.Kind), u.Target.Value, u.Target.Label,
		string(u.State), u.ClientID, u.FlowID, u.Label, u.Error)
	return err
}

func (s *UnitStore) List(ctx context.Context, runID string) ([]models.UnitStatus, error) {
	return listUnits(ctx, s.db, runID)
}

func listUnits(ctx context.Context, db *sql.DB, runID string) ([]models.UnitStatus, error) {
	rows, err := db.QueryContext(ctx, queryListUnits, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var units []models.UnitStatus
	for rows.Next() {
		var (
			u           models.UnitStatus
			kind, state string
		)
		if err := rows.Scan(&u.Index, &kind, &u.Target.Value, &u.Target.Label, &state, &u.ClientID, &u.FlowID, &u.Label, &u.Error); err != nil {
			return nil, err
		}
		u.Target.Kind = models.TargetKind(kind)
		u.State = models.UnitState(state)
		units = append(units, u)
	}
	return units, rows.Err()
}
