package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/intro-match/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds both transports over the same registrars.
func NewServer(logger *slog.Logger, registrars ...Registrar) *Server {
	grpcServer, hs := NewGRPCServer(logger, registrars...)
	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		httpServer: &http.Server{
			Handler:           NewHTTPServer(logger, registrars...),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// HTTPHandler exposes the echo router, mostly for tests.
func (s *Server) HTTPHandler() *echo.Echo {
	return s.httpServer.Handler.(*echo.Echo)
}

// Listen opens the gRPC and HTTP listeners configured in cfg.
func Listen(cfg *config.Config) (grpcLis, httpLis net.Listener, err error) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	grpcLis, err = net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
	}
	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	httpLis, err = net.Listen("tcp", httpAddr)
	if err != nil {
		_ = grpcLis.Close()
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", httpAddr, err)
	}
	return grpcLis, httpLis, nil
}

// Run serves both transports until ctx is cancelled or one of them fails,
// then shuts both down gracefully.
func (s *Server) Run(ctx context.Context, grpcLis, httpLis net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("starting gRPC server", "addr", grpcLis.Addr().String())
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()
	go func() {
		s.logger.Info("starting HTTP server", "addr", httpLis.Addr().String())
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	s.Stop()
	return runErr
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("shutting down servers")
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "err", err)
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	s.logger.Info("servers stopped")
}

// servingStatus reports the gRPC health of the whole process.
func (s *Server) servingStatus(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
