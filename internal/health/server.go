// Package health exposes the daemon's state over the standard gRPC health
// protocol. The overall service ("") is SERVING while the process runs;
// ServiceSync reflects the outcome of the most recent sync.
package health

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceSync is the health service name for the sync pipeline.
const ServiceSync = "healthtrend.sync"

type Server struct {
	address string
	logger  logging.Logger
	hs      *health.Server
}

func NewServer(address string, logger logging.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceSync, healthpb.HealthCheckResponse_SERVING)

	return &Server{
		address: address,
		logger:  logger.With("module", "health_server"),
		hs:      hs,
	}
}

// SetSyncStatus records the result of a sync. A canceled sync does not
// change the status.
func (s *Server) SetSyncStatus(err error) {
	switch {
	case err == nil:
		s.hs.SetServingStatus(ServiceSync, healthpb.HealthCheckResponse_SERVING)
	case errors.Is(err, context.Canceled):
	default:
		s.hs.SetServingStatus(ServiceSync, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

func (s *Server) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.hs.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping health server...")
		s.hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting health server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "health request", "method", info.FullMethod, "code", status.Code(err).String())
	return resp, err
}
