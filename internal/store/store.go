package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// Store provides access to all storage repositories.
type Store struct {
	db    *sql.DB
	runs  *RunStore
	units *UnitStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		runs:  NewRunStore(db),
		units: NewUnitStore(db),
	}
}

func (s *Store) Runs() *RunStore {
	return s.runs
}

func (s *Store) Units() *UnitStore {
	return s.units
}

func (s *Store) Close() error {
	return s.db.Close()
}
