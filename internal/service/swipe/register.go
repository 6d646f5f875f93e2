package swipe

import (
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"

	"github.com/oggyb/intro-match/internal/app"
)

// Registrar ties the Swipe service into the gRPC and HTTP servers
type Registrar struct {
	appCtx  *app.AppContext
	service *Service
}

// NewRegistrar creates a new Registrar for the Swipe service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, service: NewSwipeService(appCtx)}
}

// Register attaches the Swipe service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	RegisterSwipeServiceServer(s, r.service)
}

// RegisterHTTP mounts the JSON routes under g
func (r *Registrar) RegisterHTTP(g *echo.Group) {
	h := &httpHandler{service: r.service}

	g.GET("/entities/:id", h.getEntity)
	g.GET("/entities/:id/candidates", h.nextCandidates)
	g.GET("/entities/:id/matches", h.listMatches)
	g.GET("/entities/:id/matches/count", h.countMatches)
	g.GET("/entities/:id/likes", h.listIncomingLikes)
	g.POST("/decisions", h.putDecision)
}
