package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
)

// CountInvalidator drops cached match counts after the ledger changes.
type CountInvalidator interface {
	InvalidateMatchCounts(ctx context.Context, entityIDs ...uint64) error
}

// WithCountInvalidator registers a cache to purge when a pair becomes matched.
func WithCountInvalidator(c CountInvalidator) Option {
	return func(e *Engine) { e.counts = c }
}

// Result is the outcome of one Decide call.
type Result struct {
	// Matched is true when the pair's ledger status is matched after the call.
	Matched bool
	MatchID uint64
	Status  models.MatchStatus
	// Replayed is true when the decision had already been recorded and this
	// call changed nothing.
	Replayed bool
	// Changed is true when this call moved the ledger to a new status.
	Changed bool
}

// Decide records actor's decision about target and advances the pair's ledger.
//
// Behavior:
//   - actor == target → ErrSelfDecision; same-role pair → ErrInvalidPair.
//   - Either side without a complete profile → ErrProfileIncomplete.
//   - A decision already recorded for (actor, target) is a replay: the first
//     decision stands and the current ledger state is returned unchanged.
//   - Decision insert and ledger update commit atomically or not at all.
//   - The match-completed hook fires once, after commit, on the call that
//     moved the pair to matched.
func (e *Engine) Decide(ctx context.Context, actorID, targetID uint64, action models.Action) (Result, error) {
	if actorID == targetID {
		return Result{}, svcErr.ErrSelfDecision
	}
	if !action.Valid() {
		return Result{}, svcErr.Invalid("unknown action %q", action)
	}

	actor, err := e.loadComplete(ctx, actorID)
	if err != nil {
		return Result{}, err
	}
	target, err := e.loadComplete(ctx, targetID)
	if err != nil {
		return Result{}, err
	}
	pair, ok := models.PairOf(actor, target)
	if !ok {
		return Result{}, fmt.Errorf("%s %d -> %s %d: %w", actor.Role, actorID, target.Role, targetID, svcErr.ErrInvalidPair)
	}

	log := e.logger.With(
		"actor_id", actorID,
		"target_id", targetID,
		"action", string(action),
	)

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, pair.CompanyID, pair.AgentID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Warn("pair lock abandoned", "err", ctxErr)
				return Result{}, svcErr.Persistence("lock pair", ctxErr)
			}
			log.Warn("pair lock not acquired", "err", err)
			return Result{}, svcErr.Persistence("lock pair", fmt.Errorf("%w: %w", svcErr.ErrLockContention, err))
		}
		defer unlock()
	}

	var (
		res   Result
		match models.Match
	)
	op := func() error {
		err := e.store.WithTransaction(ctx, func(tx *repository.Store) error {
			var err error
			res, match, err = e.apply(ctx, tx, actor, target.ID, pair, action)
			return err
		})
		if err == nil {
			return nil
		}
		// a concurrent first decision created the pair's row; the rerun sees it
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Debug("ledger insert lost race, retrying", "err", err)
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, e.txAttempts-1), ctx)); err != nil {
		if errors.Is(err, svcErr.ErrInvariantViolation) {
			log.Error("ledger invariant violated", "err", err)
			return Result{}, err
		}
		log.Error("decision not applied", "err", err)
		return Result{}, svcErr.Persistence("apply decision", err)
	}

	if res.Changed && res.Matched {
		log.Info("pair matched", "match_id", res.MatchID)
		e.afterMatch(ctx, match)
	}
	return res, nil
}

// apply runs inside the decision transaction.
func (e *Engine) apply(
	ctx context.Context,
	tx *repository.Store,
	actor *models.Entity,
	targetID uint64,
	pair models.Pair,
	action models.Action,
) (Result, models.Match, error) {
	inserted, err := tx.Decisions.Record(ctx, models.Decision{ActorID: actor.ID, TargetID: targetID, Action: action})
	if err != nil {
		return Result{}, models.Match{}, fmt.Errorf("record decision: %w", err)
	}

	current, err := tx.Matches.LockPair(ctx, pair)
	if err != nil {
		return Result{}, models.Match{}, fmt.Errorf("lock ledger row: %w", err)
	}

	if !inserted {
		if current == nil {
			return Result{}, models.Match{}, fmt.Errorf("decision %d -> %d has no ledger row: %w",
				actor.ID, targetID, svcErr.ErrInvariantViolation)
		}
		res := resultOf(current)
		res.Replayed = true
		return res, *current, nil
	}

	status := models.StatusNone
	if current != nil {
		status = current.Status
	}
	next, err := transition(status, actor.Role, action)
	if err != nil {
		return Result{}, models.Match{}, err
	}

	switch {
	case current == nil:
		current = &models.Match{CompanyID: pair.CompanyID, AgentID: pair.AgentID, Status: next}
		if err := tx.Matches.Create(ctx, current); err != nil {
			return Result{}, models.Match{}, fmt.Errorf("create ledger row: %w", err)
		}
	case next != current.Status:
		current.Status = next
		if next == models.StatusMatched {
			now := time.Now().UTC().Truncate(time.Millisecond)
			current.MatchedAt = &now
		}
		if err := tx.Matches.UpdateStatus(ctx, current); err != nil {
			return Result{}, models.Match{}, fmt.Errorf("update ledger row: %w", err)
		}
	default:
		return resultOf(current), *current, nil
	}

	res := resultOf(current)
	res.Changed = true
	return res, *current, nil
}

func resultOf(m *models.Match) Result {
	return Result{
		Matched: m.Status == models.StatusMatched,
		MatchID: m.ID,
		Status:  m.Status,
	}
}

// afterMatch runs the post-commit side effects. Their failures are logged and
// never undo the committed match.
func (e *Engine) afterMatch(ctx context.Context, m models.Match) {
	if e.counts != nil {
		if err := e.counts.InvalidateMatchCounts(ctx, m.CompanyID, m.AgentID); err != nil {
			e.logger.Warn("failed to invalidate match counts", "match_id", m.ID, "err", err)
		}
	}
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("match notifier panicked", "match_id", m.ID, "panic", r)
		}
	}()
	e.notifier.MatchCompleted(m)
}
