package engine

import (
	"fmt"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
)

// transition applies one fresh decision to the pair's current ledger status.
// side is the actor's role. StatusNone stands for "no row yet".
//
//	current          pass      like by company   like by agent
//	none             rejected  pending_agent     pending_company
//	pending_agent    rejected  pending_agent     matched
//	pending_company  rejected  matched           pending_company
//	matched          (error)   matched           matched
//	rejected         rejected  rejected          rejected
func transition(current models.MatchStatus, side models.Role, action models.Action) (models.MatchStatus, error) {
	if !side.Valid() || !action.Valid() {
		return current, fmt.Errorf("transition from %q by %q/%q: %w", current, side, action, svcErr.ErrInvalidArgument)
	}

	switch current {
	case models.StatusRejected:
		return models.StatusRejected, nil

	case models.StatusMatched:
		if action == models.ActionPass {
			// both likes are already recorded, so any pass would have been a replay
			return current, fmt.Errorf("fresh pass on matched pair: %w", svcErr.ErrInvariantViolation)
		}
		return models.StatusMatched, nil
	}

	if action == models.ActionPass {
		switch current {
		case models.StatusNone, models.StatusPendingAgent, models.StatusPendingCompany:
			return models.StatusRejected, nil
		}
		return current, fmt.Errorf("unknown ledger status %q: %w", current, svcErr.ErrInvariantViolation)
	}

	switch current {
	case models.StatusNone:
		if side == models.RoleCompany {
			return models.StatusPendingAgent, nil
		}
		return models.StatusPendingCompany, nil
	case models.StatusPendingAgent:
		if side == models.RoleAgent {
			return models.StatusMatched, nil
		}
		return models.StatusPendingAgent, nil
	case models.StatusPendingCompany:
		if side == models.RoleCompany {
			return models.StatusMatched, nil
		}
		return models.StatusPendingCompany, nil
	}
	return current, fmt.Errorf("unknown ledger status %q: %w", current, svcErr.ErrInvariantViolation)
}
