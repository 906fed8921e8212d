// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AccelByte/extend-break-timer/pkg/common"
)

// SetupTelemetry initializes OpenTelemetry tracer and propagators.
// Returns a shutdown function that should be called on application shutdown.
//
// ============================================================
// DEVELOPER: OpenTelemetry configuration
// ============================================================
// Spans are exported to Zipkin when OTEL_EXPORTER_ZIPKIN_ENDPOINT
// is set; otherwise they are only propagated.
//
// The tracer provider configuration is in pkg/common/telemetry.go
//
// Trace context is propagated using:
// - B3 (Zipkin) propagation
// - W3C TraceContext propagation
// - W3C Baggage propagation
// ============================================================
func SetupTelemetry(ctx context.Context, serviceName, environment string, id int, zipkinEndpoint string) (func(context.Context) error, error) {
	tracerProvider, err := common.NewTracerProvider(serviceName, environment, int64(id), zipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	logrus.Infof("set tracer provider: (name: %s environment: %s id: %d)", serviceName, environment, id)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			b3.New(),                   // Zipkin B3 propagation
			propagation.TraceContext{}, // W3C Trace Context
			propagation.Baggage{},      // W3C Baggage
		),
	)
	logrus.Infof("set text map propagator")

	shutdown := func(ctx context.Context) error {
		logrus.Info("shutting down telemetry...")
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		logrus.Info("telemetry stopped")
		return nil
	}

	return shutdown, nil
}
