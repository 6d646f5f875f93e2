package swipe_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/intro-match/internal/app"
	"github.com/oggyb/intro-match/internal/cache"
	"github.com/oggyb/intro-match/internal/engine"
	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
	"github.com/oggyb/intro-match/internal/server"
	"github.com/oggyb/intro-match/internal/service/swipe"
	"github.com/oggyb/intro-match/internal/testutil"
)

type harness struct {
	appCtx *app.AppContext
	fx     testutil.Fixture
	rc     *cache.RedisCache
	mr     *miniredis.Miniredis
}

func newHarness(t *testing.T) harness {
	t.Helper()
	database := testutil.NewDB(t)
	store := repository.NewStore(database)
	fx := testutil.SeedScenario(t, store)
	rc, mr := testutil.NewRedis(t)

	logger := slog.New(slog.DiscardHandler)
	eng := engine.New(store, logger,
		engine.WithPairLocker(cache.NewPairLocker(rc, 5*time.Second, 100)),
		engine.WithCountInvalidator(rc),
	)
	return harness{appCtx: app.New(database, rc, logger, eng), fx: fx, rc: rc, mr: mr}
}

func id(v uint64) string { return strconv.FormatUint(v, 10) }

func dialBufconn(t *testing.T, h harness) *swipe.SwipeServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	swipe.NewRegistrar(h.appCtx).Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return swipe.NewSwipeServiceClient(conn)
}

func TestGRPC_MatchFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	client := dialBufconn(t, h)

	cands, err := client.NextCandidates(ctx, &swipe.NextCandidatesRequest{RequesterId: id(h.fx.C1.ID), Limit: 5})
	require.NoError(t, err)
	require.Len(t, cands.Candidates, 2)
	assert.Equal(t, id(h.fx.A1.ID), cands.Candidates[0].Entity.EntityId)
	assert.Equal(t, int32(86), cands.Candidates[0].Score)
	assert.Equal(t, "agent", cands.Candidates[0].Entity.Role)

	resp, err := client.PutDecision(ctx, &swipe.PutDecisionRequest{ActorId: id(h.fx.C1.ID), TargetId: id(h.fx.A1.ID), Action: "like"})
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, "pending_agent", resp.Status)

	likes, err := client.ListIncomingLikes(ctx, &swipe.ListIncomingLikesRequest{EntityId: id(h.fx.A1.ID)})
	require.NoError(t, err)
	require.Len(t, likes.Likers, 1)
	assert.Equal(t, id(h.fx.C1.ID), likes.Likers[0].ActorId)

	resp, err = client.PutDecision(ctx, &swipe.PutDecisionRequest{ActorId: id(h.fx.A1.ID), TargetId: id(h.fx.C1.ID), Action: "like"})
	require.NoError(t, err)
	assert.True(t, resp.Matched)
	assert.NotEmpty(t, resp.MatchId)

	matches, err := client.ListMatches(ctx, &swipe.ListMatchesRequest{EntityId: id(h.fx.C1.ID), Status: "matched"})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, id(h.fx.A1.ID), matches.Matches[0].CounterpartId)
	assert.NotZero(t, matches.Matches[0].MatchedAt)
	assert.Nil(t, matches.NextPaginationToken)

	count, err := client.CountMatches(ctx, &swipe.CountMatchesRequest{EntityId: id(h.fx.A1.ID)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)

	ent, err := client.GetEntity(ctx, &swipe.GetEntityRequest{EntityId: id(h.fx.C1.ID)})
	require.NoError(t, err)
	assert.Equal(t, "company", ent.Role)
	assert.Equal(t, "de", ent.Country)
	assert.True(t, ent.ProfileComplete)
}

func TestGRPC_ErrorsCarryReason(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	client := dialBufconn(t, h)

	tests := []struct {
		name   string
		req    *swipe.PutDecisionRequest
		code   codes.Code
		reason string
	}{
		{"same role", &swipe.PutDecisionRequest{ActorId: id(h.fx.C1.ID), TargetId: id(h.fx.C2.ID), Action: "like"}, codes.InvalidArgument, "INVALID_PAIR"},
		{"self", &swipe.PutDecisionRequest{ActorId: id(h.fx.C1.ID), TargetId: id(h.fx.C1.ID), Action: "like"}, codes.InvalidArgument, "SELF_DECISION"},
		{"unknown target", &swipe.PutDecisionRequest{ActorId: id(h.fx.C1.ID), TargetId: "999", Action: "pass"}, codes.NotFound, "NOT_FOUND"},
		{"bad action", &swipe.PutDecisionRequest{ActorId: id(h.fx.C1.ID), TargetId: id(h.fx.A1.ID), Action: "superlike"}, codes.InvalidArgument, ""},
		{"bad id", &swipe.PutDecisionRequest{ActorId: "abc", TargetId: id(h.fx.A1.ID), Action: "like"}, codes.InvalidArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.PutDecision(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.reason, svcErr.Reason(err))
		})
	}
}

func TestCountMatches_CacheFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := swipe.NewSwipeService(h.appCtx)
	c1 := h.fx.C1.ID

	resp, err := svc.CountMatches(ctx, &swipe.CountMatchesRequest{EntityId: id(c1)})
	require.NoError(t, err)
	assert.Zero(t, resp.Count)
	assert.True(t, h.mr.Exists(h.rc.KeyForMatchCount(c1)))

	// a stale cached value is served until the engine invalidates it
	require.NoError(t, h.rc.SetMatchCount(ctx, c1, 42))
	resp, err = svc.CountMatches(ctx, &swipe.CountMatchesRequest{EntityId: id(c1)})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), resp.Count)

	_, err = svc.PutDecision(ctx, &swipe.PutDecisionRequest{ActorId: id(c1), TargetId: id(h.fx.A1.ID), Action: "like"})
	require.NoError(t, err)
	_, err = svc.PutDecision(ctx, &swipe.PutDecisionRequest{ActorId: id(h.fx.A1.ID), TargetId: id(c1), Action: "like"})
	require.NoError(t, err)

	resp, err = svc.CountMatches(ctx, &swipe.CountMatchesRequest{EntityId: id(c1)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Count)
}

func TestCountMatches_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.appCtx.RedisCache = nil
	svc := swipe.NewSwipeService(h.appCtx)

	resp, err := svc.CountMatches(ctx, &swipe.CountMatchesRequest{EntityId: id(h.fx.C1.ID)})
	require.NoError(t, err)
	assert.Zero(t, resp.Count)
}

func TestNextCandidates_FilterValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := swipe.NewSwipeService(h.appCtx)

	rep := 9.0
	_, err := svc.NextCandidates(ctx, &swipe.NextCandidatesRequest{
		RequesterId: id(h.fx.C1.ID),
		Filters:     &models.Filters{MinReputation: &rep},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.NextCandidates(ctx, &swipe.NextCandidatesRequest{RequesterId: id(h.fx.C1.ID), Limit: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func newHTTP(t *testing.T, h harness) http.Handler {
	t.Helper()
	return server.NewHTTPServer(slog.New(slog.DiscardHandler), swipe.NewRegistrar(h.appCtx))
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHTTP_MatchFlow(t *testing.T) {
	h := newHarness(t)
	handler := newHTTP(t, h)
	c1, a1 := id(h.fx.C1.ID), id(h.fx.A1.ID)

	var cands swipe.NextCandidatesResponse
	code := doJSON(t, handler, http.MethodGet, "/v1/entities/"+c1+"/candidates?language=en&limit=5", "", &cands)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, cands.Candidates, 1)
	assert.Equal(t, a1, cands.Candidates[0].Entity.EntityId)

	var dec swipe.PutDecisionResponse
	code = doJSON(t, handler, http.MethodPost, "/v1/decisions",
		`{"actor_id":"`+a1+`","target_id":"`+c1+`","action":"like"}`, &dec)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pending_company", dec.Status)

	code = doJSON(t, handler, http.MethodPost, "/v1/decisions",
		`{"actor_id":"`+c1+`","target_id":"`+a1+`","action":"like"}`, &dec)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, dec.Matched)

	var matches swipe.ListMatchesResponse
	code = doJSON(t, handler, http.MethodGet, "/v1/entities/"+a1+"/matches?status=matched", "", &matches)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, c1, matches.Matches[0].CounterpartId)

	var count swipe.CountMatchesResponse
	code = doJSON(t, handler, http.MethodGet, "/v1/entities/"+c1+"/matches/count", "", &count)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1), count.Count)

	var likes swipe.ListIncomingLikesResponse
	code = doJSON(t, handler, http.MethodGet, "/v1/entities/"+c1+"/likes", "", &likes)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, likes.Likers)
}

func TestHTTP_Errors(t *testing.T) {
	h := newHarness(t)
	handler := newHTTP(t, h)
	c1, c2 := id(h.fx.C1.ID), id(h.fx.C2.ID)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		reason string
	}{
		{"invalid pair", http.MethodPost, "/v1/decisions", `{"actor_id":"` + c1 + `","target_id":"` + c2 + `","action":"like"}`, http.StatusBadRequest, "INVALID_PAIR"},
		{"unknown entity", http.MethodGet, "/v1/entities/999", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad experience range", http.MethodGet, "/v1/entities/" + c1 + "/candidates?min_experience=9&max_experience=2", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad limit", http.MethodGet, "/v1/entities/" + c1 + "/matches?limit=lots", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad status", http.MethodGet, "/v1/entities/" + c1 + "/matches?status=liked", "", http.StatusBadRequest, ""},
		{"malformed body", http.MethodPost, "/v1/decisions", `{"actor_id":`, http.StatusBadRequest, "INVALID_ARGUMENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Error  string `json:"error"`
				Reason string `json:"reason"`
			}
			code := doJSON(t, handler, tt.method, tt.target, tt.body, &body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.reason, body.Reason)
			assert.NotEmpty(t, body.Error)
		})
	}
}
