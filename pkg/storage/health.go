// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker struct {
	pinger  Pinger
	timeout time.Duration
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(pinger Pinger) *HealthChecker {
	return &HealthChecker{pinger: pinger, timeout: 2 * time.Second}
}

// Check pings the store with a short timeout.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		logrus.Errorf("store health check failed: %v", err)
		return err
	}

	logrus.Debugf("store health check passed")
	return nil
}

// IsHealthy returns true if the store is accessible.
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
