package engine

import (
	"context"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/utils/pagination"
)

// ListMatches returns ledger rows where entityID is either side, newest first.
// status == "" lists every status. A nil next token means the last page.
func (e *Engine) ListMatches(
	ctx context.Context,
	entityID uint64,
	status models.MatchStatus,
	pageToken *string,
	limit int,
) ([]models.Match, *string, error) {
	if status != models.StatusNone && !status.Valid() {
		return nil, nil, svcErr.Invalid("unknown match status %q", status)
	}
	if err := e.checkToken(pageToken); err != nil {
		return nil, nil, err
	}
	if _, err := e.GetEntity(ctx, entityID); err != nil {
		return nil, nil, err
	}

	matches, next, err := e.store.Matches.ListByEntity(ctx, entityID, status, pageToken, e.clampLimit(limit))
	if err != nil {
		return nil, nil, svcErr.Persistence("list matches", err)
	}
	return matches, next, nil
}

// ListIncomingLikes returns likes entityID received and has not answered.
func (e *Engine) ListIncomingLikes(
	ctx context.Context,
	entityID uint64,
	pageToken *string,
	limit int,
) ([]models.Decision, *string, error) {
	if err := e.checkToken(pageToken); err != nil {
		return nil, nil, err
	}
	if _, err := e.GetEntity(ctx, entityID); err != nil {
		return nil, nil, err
	}

	likes, next, err := e.store.Decisions.ListIncomingLikes(ctx, entityID, pageToken, e.clampLimit(limit))
	if err != nil {
		return nil, nil, svcErr.Persistence("list incoming likes", err)
	}
	return likes, next, nil
}

// CountMatches returns how many matched pairs entityID belongs to.
func (e *Engine) CountMatches(ctx context.Context, entityID uint64) (int64, error) {
	n, err := e.store.Matches.CountByEntity(ctx, entityID, models.StatusMatched)
	if err != nil {
		return 0, svcErr.Persistence("count matches", err)
	}
	return n, nil
}

func (e *Engine) checkToken(token *string) error {
	if token == nil || *token == "" {
		return nil
	}
	if _, err := pagination.Decode(*token); err != nil {
		return svcErr.Invalid("malformed page token: %v", err)
	}
	return nil
}
