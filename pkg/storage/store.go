// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was removed.
var ErrNotFound = errors.New("key not found")

// Store is the persistent key-value store used for timer checkpoints.
// Implementations give at-least-once durability and no multi-key transactions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
