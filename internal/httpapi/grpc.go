package httpapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"kotiva.org/internal/obs"
)

// NewGRPCServer exposes the standard gRPC health service backed by the same
// readiness probe as /readyz, for orchestrators that speak gRPC health
// checks instead of HTTP.
func NewGRPCServer(ready readinessChecker, pollInterval time.Duration) (*grpc.Server, func()) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if ready != nil {
			checkCtx, checkCancel := context.WithTimeout(ctx, pollInterval)
			err := ready.Check(checkCtx)
			checkCancel()
			if err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		obs.SetReady(status == healthpb.HealthCheckResponse_SERVING)
		hs.SetServingStatus("", status)
		hs.SetServingStatus(serviceName, status)
	}
	update()

	ticker := time.NewTicker(pollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()

	stop := func() {
		cancel()
		hs.Shutdown()
		srv.GracefulStop()
	}
	return srv, stop
}
