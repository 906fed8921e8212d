// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run starts the application and blocks until a shutdown signal is received
// or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	// Bind ports first so a busy port fails startup
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.httpServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.grpcServer.Serve)
	g.Go(a.httpServer.Serve)
	g.Go(a.metricsServer.Serve)
	g.Go(func() error {
		return a.manager.Run(gctx)
	})
	g.Go(func() error {
		return a.grpcServer.WatchHealth(gctx, a.cfg.LivenessInterval)
	})
	g.Go(func() error {
		// Drains until the manager closes the intent stream on shutdown.
		return a.dispatcher.Run(context.WithoutCancel(gctx), a.intents)
	})
	if a.settingsFile != nil {
		g.Go(func() error {
			return a.settingsFile.Watch(gctx)
		})
	}

	logrus.Info("application started successfully")

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down all application components.
//
// ============================================================
// DEVELOPER: Shutdown order is critical
// ============================================================
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (gRPC, HTTP, metrics servers)
// 2. Stop timer engines, flushing their last checkpoints and
//    closing the intent stream for the dispatcher
// 3. Close external connections (Redis, SQLite)
// 4. Flush telemetry data (OpenTelemetry)
//
// IMPORTANT: Shutdown errors are logged but don't stop the
// shutdown sequence. Each component gets a chance to clean up.
// ============================================================
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("gRPC server shutdown error: %v", err)
	}
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	// ============================================================
	// Step 2: Stop timer engines
	// ============================================================
	a.manager.Stop()

	// ============================================================
	// Step 3: Close external connections
	// ============================================================
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			logrus.Errorf("store close error: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}

	// ============================================================
	// Step 4: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
