// Package grpcserver exposes the grpc.health.v1 service for orchestrator probes.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tracknow/internal/logx"
)

// ServiceName is the health entry reported next to the overall ("") status.
const ServiceName = "tracknow"

// Check probes a dependency the service cannot run without.
type Check func(ctx context.Context) error

// Server wraps a gRPC server carrying only the health service.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	check    Check
	interval time.Duration
	logger   logx.Logger
}

// New builds the server with logging interceptors. check may be nil, in
// which case the service always reports SERVING.
func New(logger logx.Logger, check Check, interval time.Duration) *Server {
	if logger == nil {
		logger = logx.Nop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	unary := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc unary call finished",
				logx.String("method", info.FullMethod),
				logx.Duration("duration", time.Since(start)),
				logx.Err(err),
			)
		} else {
			logger.Debug("grpc unary call finished",
				logx.String("method", info.FullMethod),
				logx.Duration("duration", time.Since(start)),
			)
		}
		return resp, err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unary))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{srv: srv, health: hs, check: check, interval: interval, logger: logger}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on ln until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	go s.probe(ctx)

	s.logger.Info("grpc health server listening", logx.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Shutdown(5 * time.Second)
		return ctx.Err()
	}
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Shutdown reports NOT_SERVING and drains in-flight calls for at most timeout.
func (s *Server) Shutdown(timeout time.Duration) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		s.srv.Stop()
	}
	s.logger.Info("grpc health server stopped")
}

func (s *Server) probe(ctx context.Context) {
	if s.check == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, s.interval/2)
	defer cancel()

	if err := s.check(checkCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("health check failed", logx.Err(err))
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
