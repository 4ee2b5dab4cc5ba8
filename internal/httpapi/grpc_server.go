package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"procura.io/internal/obs"
)

// HealthServer mirrors the HTTP readiness probe onto the standard gRPC health
// service.
type HealthServer struct {
	health    *health.Server
	readiness readinessChecker
	interval  time.Duration
}

func NewHealthServer(r readinessChecker) *HealthServer {
	return &HealthServer{
		health:    health.NewServer(),
		readiness: r,
		interval:  10 * time.Second,
	}
}

// Register attaches the health service to srv.
func (s *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.health)
}

// Refresh runs the readiness checks once and publishes the result for the
// overall server and the named service.
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.readiness.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		obs.FromContext(ctx).Warn("readiness check failed", zap.Error(err))
	}
	obs.SetReady(status == healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(serviceName, status)
	return status
}

// Watch refreshes health until ctx ends, then marks everything not serving.
func (s *HealthServer) Watch(ctx context.Context) {
	s.Refresh(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
