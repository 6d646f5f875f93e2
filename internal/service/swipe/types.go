package swipe

import "github.com/oggyb/intro-match/internal/models"

// Wire types shared by the gRPC (JSON codec) and HTTP transports.
// Entity ids travel as decimal strings.

type GetEntityRequest struct {
	EntityId string `json:"entity_id" validate:"required,number"`
}

type EntityView struct {
	EntityId        string   `json:"entity_id"`
	Role            string   `json:"role"`
	Language        string   `json:"language,omitempty"`
	Country         string   `json:"country,omitempty"`
	Countries       []string `json:"countries,omitempty"`
	Industries      []string `json:"industries,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
	ExperienceYears int32    `json:"experience_years,omitempty"`
	Reputation      float64  `json:"reputation"`
	ReviewCount     int32    `json:"review_count,omitempty"`
	CommissionInfo  string   `json:"commission_info,omitempty"`
	ProfileComplete bool     `json:"profile_complete"`
}

type NextCandidatesRequest struct {
	RequesterId string          `json:"requester_id" validate:"required,number"`
	Filters     *models.Filters `json:"filters,omitempty"`
	Limit       int32           `json:"limit,omitempty" validate:"gte=0"`
}

type Candidate struct {
	Entity *EntityView `json:"entity"`
	Score  int32       `json:"score"`
}

type NextCandidatesResponse struct {
	Candidates []*Candidate `json:"candidates"`
}

type PutDecisionRequest struct {
	ActorId  string `json:"actor_id" validate:"required,number"`
	TargetId string `json:"target_id" validate:"required,number"`
	Action   string `json:"action" validate:"required,oneof=like pass"`
}

type PutDecisionResponse struct {
	Matched  bool   `json:"matched"`
	MatchId  string `json:"match_id,omitempty"`
	Status   string `json:"status"`
	Replayed bool   `json:"replayed,omitempty"`
}

type ListMatchesRequest struct {
	EntityId        string  `json:"entity_id" validate:"required,number"`
	Status          string  `json:"status,omitempty" validate:"omitempty,oneof=pending_agent pending_company matched rejected"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int32   `json:"limit,omitempty" validate:"gte=0"`
}

type MatchView struct {
	MatchId       string `json:"match_id"`
	CompanyId     string `json:"company_id"`
	AgentId       string `json:"agent_id"`
	CounterpartId string `json:"counterpart_id"`
	Status        string `json:"status"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
	MatchedAt     uint64 `json:"matched_at,omitempty"`
}

type ListMatchesResponse struct {
	Matches             []*MatchView `json:"matches"`
	NextPaginationToken *string      `json:"next_pagination_token,omitempty"`
}

type ListIncomingLikesRequest struct {
	EntityId        string  `json:"entity_id" validate:"required,number"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int32   `json:"limit,omitempty" validate:"gte=0"`
}

type Liker struct {
	ActorId       string `json:"actor_id"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type ListIncomingLikesResponse struct {
	Likers              []*Liker `json:"likers"`
	NextPaginationToken *string  `json:"next_pagination_token,omitempty"`
}

type CountMatchesRequest struct {
	EntityId string `json:"entity_id" validate:"required,number"`
}

type CountMatchesResponse struct {
	Count uint64 `json:"count"`
}
