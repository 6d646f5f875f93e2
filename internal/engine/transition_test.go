package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
)

func TestTransition(t *testing.T) {
	const (
		company = models.RoleCompany
		agent   = models.RoleAgent
		like    = models.ActionLike
		pass    = models.ActionPass
	)

	tests := []struct {
		name    string
		current models.MatchStatus
		side    models.Role
		action  models.Action
		want    models.MatchStatus
	}{
		{"first like by company", models.StatusNone, company, like, models.StatusPendingAgent},
		{"first like by agent", models.StatusNone, agent, like, models.StatusPendingCompany},
		{"first pass by company", models.StatusNone, company, pass, models.StatusRejected},
		{"first pass by agent", models.StatusNone, agent, pass, models.StatusRejected},
		{"agent likes back", models.StatusPendingAgent, agent, like, models.StatusMatched},
		{"agent passes pending", models.StatusPendingAgent, agent, pass, models.StatusRejected},
		{"company like keeps pending_agent", models.StatusPendingAgent, company, like, models.StatusPendingAgent},
		{"company likes back", models.StatusPendingCompany, company, like, models.StatusMatched},
		{"company passes pending", models.StatusPendingCompany, company, pass, models.StatusRejected},
		{"agent like keeps pending_company", models.StatusPendingCompany, agent, like, models.StatusPendingCompany},
		{"like on matched", models.StatusMatched, company, like, models.StatusMatched},
		{"like on rejected", models.StatusRejected, company, like, models.StatusRejected},
		{"pass on rejected", models.StatusRejected, agent, pass, models.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transition(tt.current, tt.side, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_Errors(t *testing.T) {
	_, err := transition(models.StatusMatched, models.RoleAgent, models.ActionPass)
	assert.ErrorIs(t, err, svcErr.ErrInvariantViolation)

	_, err = transition("bogus", models.RoleAgent, models.ActionLike)
	assert.ErrorIs(t, err, svcErr.ErrInvariantViolation)

	_, err = transition(models.StatusNone, models.RoleNone, models.ActionLike)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = transition(models.StatusNone, models.RoleCompany, "maybe")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

// Matched and rejected never move again, whatever arrives.
func TestTransition_TerminalStatesAreAbsorbing(t *testing.T) {
	for _, status := range []models.MatchStatus{models.StatusMatched, models.StatusRejected} {
		for _, side := range []models.Role{models.RoleCompany, models.RoleAgent} {
			got, err := transition(status, side, models.ActionLike)
			require.NoError(t, err)
			assert.Equal(t, status, got)
		}
	}
}

func scoredIDs(in []models.ScoredEntity) []uint64 {
	out := make([]uint64, 0, len(in))
	for _, s := range in {
		out = append(out, s.Entity.ID)
	}
	return out
}

func pool(n int) []models.ScoredEntity {
	out := make([]models.ScoredEntity, n)
	for i := range out {
		out[i] = models.ScoredEntity{Entity: models.Entity{ID: uint64(i + 1)}, Score: 100 - i}
	}
	return out
}

func reverse(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func TestDiversify(t *testing.T) {
	t.Run("top seven then shuffled tail", func(t *testing.T) {
		got := diversify(pool(30), 10, reverse)
		assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 30, 29, 28}, scoredIDs(got))
	})

	t.Run("identity shuffle keeps score order", func(t *testing.T) {
		got := diversify(pool(30), 10, func(int, func(i, j int)) {})
		assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, scoredIDs(got))
	})

	t.Run("top share rounds up", func(t *testing.T) {
		// ceil(0.7*3) = 3: nothing left to diversify
		got := diversify(pool(10), 3, reverse)
		assert.Equal(t, []uint64{1, 2, 3}, scoredIDs(got))

		// ceil(0.7*5) = 4
		got = diversify(pool(10), 5, reverse)
		assert.Equal(t, []uint64{1, 2, 3, 4, 10}, scoredIDs(got))
	})

	t.Run("small pool", func(t *testing.T) {
		got := diversify(pool(4), 10, reverse)
		assert.Equal(t, []uint64{1, 2, 3, 4}, scoredIDs(got))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, diversify(nil, 10, reverse))
		assert.Empty(t, diversify(pool(3), 0, reverse))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := pool(20)
		_ = diversify(in, 10, reverse)
		assert.Equal(t, pool(20), in)
	})
}

func TestRank_TiesBrokenByID(t *testing.T) {
	requester := &models.Entity{ID: 1, Role: models.RoleCompany, Language: "en",
		Profile: &models.CompanyProfile{Country: "de", Industries: []string{"it"}}}
	agent := func(id uint64) models.Entity {
		return models.Entity{ID: id, Role: models.RoleAgent,
			Profile: &models.AgentProfile{Countries: []string{"de"}, Languages: []string{"en"}}}
	}

	got := rank(requester, []models.Entity{agent(9), agent(3), agent(5)})
	assert.Equal(t, []uint64{3, 5, 9}, scoredIDs(got))
	assert.Equal(t, got[0].Score, got[2].Score)
}
