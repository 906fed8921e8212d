// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// setupTestManager creates a manager whose engines checkpoint into miniredis.
func setupTestManager(t *testing.T) (*timer.Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager := timer.NewManager(timer.Dependencies{
		Store:    storage.NewRedisStore(client, storage.RedisStoreConfig{}),
		Settings: settings.NewProvider(settings.Default()),
	}, timer.DefaultOptions())
	t.Cleanup(manager.Stop)

	return manager, mr
}

// setupTestClient serves TimerService over an in-memory listener.
func setupTestClient(t *testing.T, manager *timer.Manager, userID string) *TimerClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterTimerServiceServer(server, NewTimerService(manager))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewTimerClient(conn, userID)
}
