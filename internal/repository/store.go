package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db        *gorm.DB
	Profiles  *ProfileRepository
	Decisions *DecisionRepository
	Matches   *MatchRepository
}

// NewStore binds all repositories to database.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		db:        database,
		Profiles:  NewProfileRepository(database),
		Decisions: NewDecisionRepository(database),
		Matches:   NewMatchRepository(database),
	}
}

// WithTransaction runs fn with a Store bound to a single transaction.
// fn's error (or a panic) rolls everything back.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
