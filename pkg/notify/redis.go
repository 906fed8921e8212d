// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// RedisPublisher publishes intents as JSON on a Redis channel so that
// presentation services can render them.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	retries uint64
}

// NewRedisPublisher creates a publisher for channel. Failed publishes are
// retried up to retries times with exponential backoff.
func NewRedisPublisher(client redis.UniversalClient, channel string, retries uint64) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		retries: retries,
	}
}

func (p *RedisPublisher) ID() string {
	return "redis"
}

func (p *RedisPublisher) Notify(ctx context.Context, intent timer.Intent) error {
	data, err := json.Marshal(NewPayload(intent))
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.retries), ctx)
	err = backoff.Retry(func() error {
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			logrus.Warnf("failed to publish %s intent to %s: %v, retrying...", intent.Type, p.channel, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}

	logrus.Debugf("published %s intent for user %s to %s", intent.Type, intent.UserID, p.channel)
	return nil
}
