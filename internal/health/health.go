// Package health exposes the standard gRPC health service so supervisors
// can tell when recognition is running.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported next to the overall "" status.
const ServiceName = "mudra.Recognizer"

// Server is a gRPC server carrying only the health service. It starts
// NOT_SERVING.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	log    zerolog.Logger
}

// Listen binds addr and registers the health service.
func Listen(addr string, log zerolog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("health: listen %s: %w", addr, err)
	}

	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		lis:    lis,
		log:    log.With().Str("component", "health").Logger(),
	}
	healthgrpc.RegisterHealthServer(s.grpc, s.health)
	s.SetServing(false)

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Serve blocks until the server stops.
func (s *Server) Serve() error {
	s.log.Info().Str("addr", s.lis.Addr().String()).Msg("gRPC health server started")
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// SetServing flips both the overall and the recognizer status.
func (s *Server) SetServing(serving bool) {
	status := healthgrpc.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthgrpc.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop reports NOT_SERVING and stops gracefully, forcing the stop when ctx
// expires first.
func (s *Server) Stop(ctx context.Context) {
	s.SetServing(false)

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.log.Warn().Msg("graceful stop timed out, forcing")
		s.grpc.Stop()
		<-stopped
	}
}
