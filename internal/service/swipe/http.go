package swipe

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/status"

	svcErr "github.com/oggyb/intro-match/internal/errors"
	"github.com/oggyb/intro-match/internal/models"
)

type httpHandler struct {
	service *Service
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(c echo.Context, err error) error {
	return c.JSON(svcErr.HTTPStatus(err), errorBody{
		Error:  status.Convert(err).Message(),
		Reason: svcErr.Reason(err),
	})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Reason: "INVALID_ARGUMENT"})
}

func optionalString(c echo.Context, name string) *string {
	if v := c.QueryParam(name); v != "" {
		return &v
	}
	return nil
}

func (h *httpHandler) getEntity(c echo.Context) error {
	resp, err := h.service.GetEntity(c.Request().Context(), &GetEntityRequest{EntityId: c.Param("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// nextCandidates reads filters from the query string:
// ?country=de&industry=it&language=en&min_experience=3&max_experience=10&min_reputation=4&limit=20
func (h *httpHandler) nextCandidates(c echo.Context) error {
	req := &NextCandidatesRequest{RequesterId: c.Param("id")}
	var (
		f              models.Filters
		minExp, maxExp int
		minRep         float64
	)
	err := echo.QueryParamsBinder(c).
		Int32("limit", &req.Limit).
		String("country", &f.Country).
		Strings("industry", &f.Industries).
		Strings("language", &f.Languages).
		Int("min_experience", &minExp).
		Int("max_experience", &maxExp).
		Float64("min_reputation", &minRep).
		BindError()
	if err != nil {
		return badRequest(c, err)
	}
	if c.QueryParam("min_experience") != "" {
		f.MinExperience = &minExp
	}
	if c.QueryParam("max_experience") != "" {
		f.MaxExperience = &maxExp
	}
	if c.QueryParam("min_reputation") != "" {
		f.MinReputation = &minRep
	}
	req.Filters = &f

	resp, err := h.service.NextCandidates(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) putDecision(c echo.Context) error {
	var req PutDecisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	resp, err := h.service.PutDecision(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) listMatches(c echo.Context) error {
	req := &ListMatchesRequest{
		EntityId:        c.Param("id"),
		Status:          c.QueryParam("status"),
		PaginationToken: optionalString(c, "pagination_token"),
	}
	if err := echo.QueryParamsBinder(c).Int32("limit", &req.Limit).BindError(); err != nil {
		return badRequest(c, err)
	}
	resp, err := h.service.ListMatches(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) listIncomingLikes(c echo.Context) error {
	req := &ListIncomingLikesRequest{
		EntityId:        c.Param("id"),
		PaginationToken: optionalString(c, "pagination_token"),
	}
	if err := echo.QueryParamsBinder(c).Int32("limit", &req.Limit).BindError(); err != nil {
		return badRequest(c, err)
	}
	resp, err := h.service.ListIncomingLikes(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) countMatches(c echo.Context) error {
	resp, err := h.service.CountMatches(c.Request().Context(), &CountMatchesRequest{EntityId: c.Param("id")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
