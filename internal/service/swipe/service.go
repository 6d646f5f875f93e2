package swipe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/intro-match/internal/app"
	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
)

// Service implements the Swipe API on top of the engine and the Redis cache.
// Each method corresponds to one RPC of intromatch.v1.SwipeService and one
// HTTP route.
type Service struct {
	appCtx   *app.AppContext
	validate *validator.Validate
}

// NewSwipeService creates a new Swipe service with dependencies from AppContext.
func NewSwipeService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		validate: validator.New(),
	}
}

// GetEntity returns an entity with its profile.
func (s *Service) GetEntity(ctx context.Context, req *GetEntityRequest) (*EntityView, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	id, err := parseID("entity_id", req.EntityId)
	if err != nil {
		return nil, err
	}

	ent, err := s.appCtx.Engine.GetEntity(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toEntityView(ent), nil
}

// NextCandidates returns the next page of ranked counterparts for the requester.
//
// Example:
//
//	svc.NextCandidates(ctx, &NextCandidatesRequest{RequesterId: "1", Limit: 10})
func (s *Service) NextCandidates(ctx context.Context, req *NextCandidatesRequest) (*NextCandidatesResponse, error) {
	s.appCtx.Logger.Debug("NextCandidates called", "requester", req.RequesterId, "limit", req.Limit)

	if err := s.check(req); err != nil {
		return nil, err
	}
	requesterID, err := parseID("requester_id", req.RequesterId)
	if err != nil {
		return nil, err
	}

	var filters models.Filters
	if req.Filters != nil {
		filters = *req.Filters
	}

	scored, err := s.appCtx.Engine.NextCandidates(ctx, requesterID, filters, int(req.Limit))
	if err != nil {
		s.appCtx.Logger.Error("NextCandidates failed", "requester", requesterID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &NextCandidatesResponse{Candidates: make([]*Candidate, 0, len(scored))}
	for i := range scored {
		resp.Candidates = append(resp.Candidates, &Candidate{
			Entity: toEntityView(&scored[i].Entity),
			Score:  int32(scored[i].Score),
		})
	}

	s.appCtx.Logger.Debug("NextCandidates result", "requester", requesterID, "count", len(resp.Candidates))
	return resp, nil
}

// PutDecision records a like or pass and reports whether the pair is matched.
//
// Behavior:
//   - Resubmitting a decision is safe; the first one stands.
//   - matched is true whenever the pair is matched after the call, including
//     on replays.
//
// Example:
//
//	svc.PutDecision(ctx, &PutDecisionRequest{ActorId: "1", TargetId: "2", Action: "like"})
func (s *Service) PutDecision(ctx context.Context, req *PutDecisionRequest) (*PutDecisionResponse, error) {
	s.appCtx.Logger.Debug(
		"PutDecision called",
		"actor", req.ActorId,
		"target", req.TargetId,
		"action", req.Action,
	)
	if err := s.check(req); err != nil {
		return nil, err
	}
	actorID, err := parseID("actor_id", req.ActorId)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_id", req.TargetId)
	if err != nil {
		return nil, err
	}

	res, err := s.appCtx.Engine.Decide(ctx, actorID, targetID, models.Action(req.Action))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &PutDecisionResponse{
		Matched:  res.Matched,
		Status:   string(res.Status),
		Replayed: res.Replayed,
	}
	if res.MatchID != 0 {
		resp.MatchId = strconv.FormatUint(res.MatchID, 10)
	}
	return resp, nil
}

// ListMatches returns the entity's ledger rows, newest first.
func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	s.appCtx.Logger.Debug("ListMatches called", "entity", req.EntityId, "status", req.Status, "token", req.PaginationToken)

	if err := s.check(req); err != nil {
		return nil, err
	}
	entityID, err := parseID("entity_id", req.EntityId)
	if err != nil {
		return nil, err
	}

	matches, nextToken, err := s.appCtx.Engine.ListMatches(ctx, entityID, models.MatchStatus(req.Status), req.PaginationToken, int(req.Limit))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &ListMatchesResponse{Matches: make([]*MatchView, 0, len(matches))}
	for i := range matches {
		resp.Matches = append(resp.Matches, toMatchView(&matches[i], entityID))
	}
	resp.NextPaginationToken = nextToken
	return resp, nil
}

// ListIncomingLikes returns who liked the entity and is still waiting for an answer.
func (s *Service) ListIncomingLikes(ctx context.Context, req *ListIncomingLikesRequest) (*ListIncomingLikesResponse, error) {
	s.appCtx.Logger.Debug("ListIncomingLikes called", "entity", req.EntityId, "token", req.PaginationToken)

	if err := s.check(req); err != nil {
		return nil, err
	}
	entityID, err := parseID("entity_id", req.EntityId)
	if err != nil {
		return nil, err
	}

	decisions, nextToken, err := s.appCtx.Engine.ListIncomingLikes(ctx, entityID, req.PaginationToken, int(req.Limit))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &ListIncomingLikesResponse{Likers: make([]*Liker, 0, len(decisions))}
	for _, d := range decisions {
		resp.Likers = append(resp.Likers, &Liker{
			ActorId:       strconv.FormatUint(d.ActorID, 10),
			UnixTimestamp: uint64(d.CreatedAt.UnixMilli()),
		})
	}
	resp.NextPaginationToken = nextToken
	return resp, nil
}

// CountMatches returns how many matched pairs the entity belongs to.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:entityID).
//  2. On a miss, counts in the DB and caches the result with a 1h TTL.
//
// The engine drops both sides' keys whenever a pair becomes matched.
func (s *Service) CountMatches(ctx context.Context, req *CountMatchesRequest) (*CountMatchesResponse, error) {
	s.appCtx.Logger.Debug("CountMatches called", "entity", req.EntityId)

	if err := s.check(req); err != nil {
		return nil, err
	}
	entityID, err := parseID("entity_id", req.EntityId)
	if err != nil {
		return nil, err
	}

	rc := s.appCtx.RedisCache
	version, fill := "", false
	if rc != nil {
		n, ok, err := rc.GetMatchCount(ctx, entityID)
		if err != nil {
			s.appCtx.Logger.Warn("match count cache read failed", "entity", entityID, "err", err)
		}
		if ok {
			return &CountMatchesResponse{Count: uint64(n)}, nil
		}
		// version is read before the DB so a match committed in between wins
		version, err = rc.MatchCountVersion(ctx, entityID)
		fill = err == nil
	}

	// fallback: DB
	count, err := s.appCtx.Engine.CountMatches(ctx, entityID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if fill {
		if _, err := rc.FillMatchCount(ctx, entityID, version, count); err != nil {
			s.appCtx.Logger.Warn("match count cache write failed", "entity", entityID, "err", err)
		}
	}
	return &CountMatchesResponse{Count: uint64(count)}, nil
}

// check validates a request struct and turns failures into InvalidArgument.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return svcErr.InvalidArgument(fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return svcErr.InvalidArgument(err.Error())
}

func parseID(field, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(field + " must be a valid uint64")
	}
	return id, nil
}

func toEntityView(e *models.Entity) *EntityView {
	v := &EntityView{
		EntityId:        strconv.FormatUint(e.ID, 10),
		Role:            string(e.Role),
		Language:        e.Language,
		Reputation:      e.Reputation(),
		ProfileComplete: e.Complete(),
	}
	switch p := e.Profile.(type) {
	case *models.CompanyProfile:
		v.Country = p.Country
		v.Industries = p.Industries
		v.CommissionInfo = p.CommissionInfo
		v.ReviewCount = int32(p.ReviewCount)
	case *models.AgentProfile:
		v.Countries = p.Countries
		v.Languages = p.Languages
		v.Specializations = p.Specializations
		v.ExperienceYears = int32(p.ExperienceYears)
	}
	return v
}

func toMatchView(m *models.Match, viewer uint64) *MatchView {
	other, _ := m.OtherID(viewer)
	v := &MatchView{
		MatchId:       strconv.FormatUint(m.ID, 10),
		CompanyId:     strconv.FormatUint(m.CompanyID, 10),
		AgentId:       strconv.FormatUint(m.AgentID, 10),
		CounterpartId: strconv.FormatUint(other, 10),
		Status:        string(m.Status),
		UnixTimestamp: uint64(m.UpdatedAt.UnixMilli()),
	}
	if m.MatchedAt != nil {
		v.MatchedAt = uint64(m.MatchedAt.UnixMilli())
	}
	return v
}
