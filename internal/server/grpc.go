// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/AccelByte/extend-break-timer/pkg/common"
	"github.com/AccelByte/extend-break-timer/pkg/handler"
)

// HealthChecker reports whether the timer store is reachable.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	port     int
	service  *handler.TimerService
	checker  HealthChecker
}

// NewGRPCServer creates a new gRPC server instance. checker may be nil, in
// which case the server always reports SERVING.
func NewGRPCServer(port int, service *handler.TimerService, checker HealthChecker) *GRPCServer {
	return &GRPCServer{
		port:    port,
		service: service,
		checker: checker,
	}
}

// Setup configures the gRPC server with interceptors and registers handlers.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// This method sets up:
// 1. Interceptors (logging, auth, rate limiting, etc.)
// 2. The TimerService handler
// 3. Server features (reflection, health checks)
// ============================================================
func (s *GRPCServer) Setup() error {
	// ============================================================
	// DEVELOPER: Add custom gRPC interceptors here
	// ============================================================
	// Example:
	// unaryInterceptors = append(unaryInterceptors, myAuthInterceptor)
	// ============================================================
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	handler.RegisterTimerServiceServer(s.server, s.service)
	logrus.Infof("registered %s", handler.TimerServiceName)

	// ============================================================
	// Enable gRPC server features
	// ============================================================
	// - Reflection: allows tools like grpcurl to inspect services
	// - Health check: for Kubernetes liveness/readiness probes,
	//   NOT_SERVING while the timer store is unreachable
	// ============================================================
	reflection.Register(s.server)
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// Start binds the listening port.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.listener = lis
	return nil
}

// Serve blocks serving gRPC requests until Shutdown is called.
func (s *GRPCServer) Serve() error {
	logrus.Infof("gRPC server listening on port %d", s.port)
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	return nil
}

// UpdateHealth sets the serving status from the store health.
func (s *GRPCServer) UpdateHealth(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if s.checker != nil && !s.checker.IsHealthy(ctx) {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(handler.TimerServiceName, status)
	return status
}

// WatchHealth refreshes the serving status every interval until ctx is done.
func (s *GRPCServer) WatchHealth(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := s.UpdateHealth(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			status := s.UpdateHealth(ctx)
			if status != last {
				logrus.Warnf("gRPC health changed from %s to %s", last, status)
				last = status
			}
		}
	}
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
