// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/pkg/metrics"
)

// MetricsServer manages the Prometheus metrics HTTP server.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry
	port     int
	endpoint string
}

// NewMetricsServer creates a new metrics server instance.
func NewMetricsServer(port int, endpoint string) *MetricsServer {
	return &MetricsServer{
		port:     port,
		endpoint: endpoint,
	}
}

// Setup configures the metrics server and registers collectors.
//
// ============================================================
// DEVELOPER: Register custom Prometheus metrics here
// ============================================================
// Go runtime and process metrics are exposed alongside the timer
// collectors from pkg/metrics. New timer metrics belong in
// pkg/metrics and are picked up through metrics.Collectors().
// ============================================================
func (m *MetricsServer) Setup() error {
	m.registry = prometheus.NewRegistry()

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := registerAll(m.registry, metrics.Collectors()); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(m.endpoint, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.port),
		Handler: mux,
	}

	return nil
}

// Start binds the listening port.
func (m *MetricsServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", m.port, err)
	}
	m.listener = lis
	return nil
}

// Serve blocks serving metrics until Shutdown is called.
func (m *MetricsServer) Serve() error {
	logrus.Infof("metrics server listening on port %d%s", m.port, m.endpoint)
	if err := m.server.Serve(m.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down metrics server...")
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("metrics server stopped")
	return nil
}

func registerAll(registry *prometheus.Registry, cs []prometheus.Collector) error {
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}
