package server

import (
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// HTTPRegistrar is implemented by registrars that also expose JSON routes.
// Routes are mounted under /v1.
type HTTPRegistrar interface {
	RegisterHTTP(g *echo.Group)
}
