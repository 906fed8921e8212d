// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisStore implements Store using Redis string keys.
type RedisStore struct {
	client redis.UniversalClient
	cfg    RedisStoreConfig
}

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	// TTL applied on every Set. Zero keeps keys until they are removed.
	TTL time.Duration
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	return &RedisStore{
		client: client,
		cfg:    cfg,
	}
}

// Get retrieves the raw value stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		logrus.Errorf("failed to get key %s: %v", key, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	logrus.Debugf("retrieved key %s (%d bytes)", key, len(data))
	return data, nil
}

// Set writes value under key.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set key %s: %v", key, err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	logrus.Debugf("updated key %s with TTL %v", key, r.cfg.TTL)
	return nil
}

// Remove deletes key.
func (r *RedisStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logrus.Errorf("failed to delete key %s: %v", key, err)
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	logrus.Debugf("deleted key %s", key)
	return nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
