// Package engine implements candidate selection and the swipe state machine.
//
// The engine is a library: it owns no goroutines and is safe for concurrent use
// by any number of request handlers. Every blocking call goes to the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
)

const (
	defaultLimit      = 10
	maxLimit          = 100
	defaultOversample = 3
	defaultTxAttempts = 5
)

// PairLocker serializes work on one Company–Agent pair across processes.
type PairLocker interface {
	Lock(ctx context.Context, companyID, agentID uint64) (unlock func(), err error)
}

// MatchNotifier is told about every pair that just became matched.
// It must not block; delivery and retries are its own business.
type MatchNotifier interface {
	MatchCompleted(m models.Match)
}

// Engine exposes NextCandidates, Decide and the read-only ledger projections.
type Engine struct {
	store      *repository.Store
	logger     *slog.Logger
	locker     PairLocker
	notifier   MatchNotifier
	counts     CountInvalidator
	validate   *validator.Validate
	shuffle    func(n int, swap func(i, j int))
	limit      int
	oversample int
	txAttempts uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPairLocker adds cross-process pair locking around the ledger update.
func WithPairLocker(l PairLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithNotifier sets the match-completed hook.
func WithNotifier(n MatchNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithShuffle replaces the random shuffle used for diversification.
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(e *Engine) { e.shuffle = fn }
}

// WithDefaultLimit sets the page size used when callers pass limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = min(n, maxLimit)
		}
	}
}

// WithOversampleFactor sets how many rows per requested candidate are scored.
func WithOversampleFactor(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.oversample = n
		}
	}
}

// WithTxAttempts bounds retries of a decision transaction that lost a race on
// the ledger's unique pair key.
func WithTxAttempts(n uint64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.txAttempts = n
		}
	}
}

// New creates an engine over store.
func New(store *repository.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		logger:     logger.With("component", "swipe_engine"),
		validate:   validator.New(),
		shuffle:    rand.Shuffle,
		limit:      defaultLimit,
		oversample: defaultOversample,
		txAttempts: defaultTxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetEntity returns an entity with its profile.
func (e *Engine) GetEntity(ctx context.Context, id uint64) (*models.Entity, error) {
	ent, err := e.store.Profiles.GetEntity(ctx, id)
	if err != nil {
		if errors.Is(err, svcErr.ErrNotFound) {
			return nil, err
		}
		return nil, svcErr.Persistence("load entity", err)
	}
	return ent, nil
}

// loadComplete loads an entity and requires a role and a matching profile.
func (e *Engine) loadComplete(ctx context.Context, id uint64) (*models.Entity, error) {
	ent, err := e.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ent.Complete() {
		return nil, fmt.Errorf("entity %d: %w", id, svcErr.ErrProfileIncomplete)
	}
	return ent, nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.limit
	}
	return min(limit, maxLimit)
}
