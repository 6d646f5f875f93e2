package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
	"github.com/oggyb/intro-match/internal/scoring"
)

// topShare is the fraction of a page (in tenths, rounded up) kept in strict
// score order; the rest is drawn at random from lower-ranked candidates.
const topShare = 7

// NextCandidates returns up to limit counterparts for requester, best first.
//
// Behavior:
//   - Candidates have the opposite role and pass every filter.
//   - Entities the requester already decided on, and pairs already rejected,
//     never appear.
//   - The first ceil(0.7*limit) results are the highest scores in order; the
//     remaining slots are a random sample of the rest of the scored pool.
//   - limit <= 0 selects the default page size; larger values are capped.
func (e *Engine) NextCandidates(
	ctx context.Context,
	requesterID uint64,
	filters models.Filters,
	limit int,
) ([]models.ScoredEntity, error) {
	if err := e.validateFilters(filters); err != nil {
		return nil, err
	}
	limit = e.clampLimit(limit)

	requester, err := e.loadComplete(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	pool, err := e.store.Profiles.FindCandidates(ctx, repository.CandidateQuery{
		RequesterID: requester.ID,
		Role:        requester.Role.Opposite(),
		Filters:     filters,
		Limit:       limit * e.oversample,
	})
	if err != nil {
		return nil, svcErr.Persistence("find candidates", err)
	}

	return diversify(rank(requester, pool), limit, e.shuffle), nil
}

// rank scores pool against requester, highest first, ties by id.
func rank(requester *models.Entity, pool []models.Entity) []models.ScoredEntity {
	scored := make([]models.ScoredEntity, 0, len(pool))
	for i := range pool {
		scored = append(scored, models.ScoredEntity{
			Entity: pool[i],
			Score:  scoring.Score(requester, &pool[i]),
		})
	}
	slices.SortStableFunc(scored, func(a, b models.ScoredEntity) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		switch {
		case a.Entity.ID < b.Entity.ID:
			return -1
		case a.Entity.ID > b.Entity.ID:
			return 1
		}
		return 0
	})
	return scored
}

// diversify keeps the top share of the page verbatim and fills the remainder
// with a shuffled sample of what is left.
func diversify(scored []models.ScoredEntity, limit int, shuffle func(n int, swap func(i, j int))) []models.ScoredEntity {
	if limit <= 0 || len(scored) == 0 {
		return []models.ScoredEntity{}
	}
	top := min((limit*topShare+9)/10, len(scored))

	out := make([]models.ScoredEntity, 0, min(limit, len(scored)))
	out = append(out, scored[:top]...)

	rest := slices.Clone(scored[top:])
	if len(rest) > 1 && shuffle != nil {
		shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	}
	need := min(limit-top, len(rest))
	return append(out, rest[:need]...)
}

func (e *Engine) validateFilters(f models.Filters) error {
	if err := e.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return svcErr.Invalid("filter %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return svcErr.Invalid("filters: %v", err)
	}
	if f.MinExperience != nil && f.MaxExperience != nil && *f.MinExperience > *f.MaxExperience {
		return svcErr.Invalid("min_experience %d exceeds max_experience %d", *f.MinExperience, *f.MaxExperience)
	}
	return nil
}
