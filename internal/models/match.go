package models

import "time"

// Action is the decision one entity makes about another.
type Action string

const (
	ActionLike Action = "like"
	ActionPass Action = "pass"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionLike || a == ActionPass
}

// MatchStatus is the lifecycle state of a Company–Agent pair.
type MatchStatus string

const (
	StatusNone           MatchStatus = ""
	StatusPendingAgent   MatchStatus = "pending_agent"
	StatusPendingCompany MatchStatus = "pending_company"
	StatusMatched        MatchStatus = "matched"
	StatusRejected       MatchStatus = "rejected"
)

// Valid reports whether s is a stored ledger status.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusPendingAgent, StatusPendingCompany, StatusMatched, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s MatchStatus) Terminal() bool {
	return s == StatusMatched || s == StatusRejected
}

// Decision is an immutable Like/Pass fact keyed by (ActorID, TargetID).
type Decision struct {
	ActorID   uint64
	TargetID  uint64
	Action    Action
	CreatedAt time.Time
}

// Pair is the unordered Company–Agent key of a match.
type Pair struct {
	CompanyID uint64
	AgentID   uint64
}

// PairOf builds the pair key for two entities of different roles.
// ok is false when the roles do not form a Company–Agent pair.
func PairOf(a, b *Entity) (Pair, bool) {
	switch {
	case a.Role == RoleCompany && b.Role == RoleAgent:
		return Pair{CompanyID: a.ID, AgentID: b.ID}, true
	case a.Role == RoleAgent && b.Role == RoleCompany:
		return Pair{CompanyID: b.ID, AgentID: a.ID}, true
	default:
		return Pair{}, false
	}
}

// Match is the ledger row for one pair.
type Match struct {
	ID        uint64
	CompanyID uint64
	AgentID   uint64
	Status    MatchStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	MatchedAt *time.Time
}

// Pair returns the match's pair key.
func (m *Match) Pair() Pair {
	return Pair{CompanyID: m.CompanyID, AgentID: m.AgentID}
}

// OtherID returns the counterpart of entityID in the match.
func (m *Match) OtherID(entityID uint64) (uint64, bool) {
	switch entityID {
	case m.CompanyID:
		return m.AgentID, true
	case m.AgentID:
		return m.CompanyID, true
	}
	return 0, false
}

// ScoredEntity is a candidate together with its compatibility score.
type ScoredEntity struct {
	Entity Entity
	Score  int
}

// Filters restrict candidate selection. Zero values mean "no restriction".
type Filters struct {
	Country       string   `json:"country,omitempty" yaml:"country" validate:"omitempty,max=64"`
	Industries    []string `json:"industries,omitempty" yaml:"industries" validate:"omitempty,max=32,dive,max=64"`
	Languages     []string `json:"languages,omitempty" yaml:"languages" validate:"omitempty,max=16,dive,max=16"`
	MinExperience *int     `json:"min_experience,omitempty" yaml:"min_experience" validate:"omitempty,min=0"`
	MaxExperience *int     `json:"max_experience,omitempty" yaml:"max_experience" validate:"omitempty,min=0"`
	MinReputation *float64 `json:"min_reputation,omitempty" yaml:"min_reputation" validate:"omitempty,min=0,max=5"`
}
