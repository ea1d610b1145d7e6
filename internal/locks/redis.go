package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix   = "pharmacy:lock:"
	redisLockTTL     = 30 * time.Second
	redisRetryEvery  = 50 * time.Millisecond
	redisReleaseWait = 2 * time.Second
)

// Redis shares locks between server replicas through a Redis instance.
type Redis struct {
	client *redislock.Client
	log    logrus.FieldLogger
}

func NewRedis(client *redis.Client, logger logrus.FieldLogger) *Redis {
	return &Redis{client: redislock.New(client), log: logger}
}

// Lock retries until the lock is obtained or ctx ends. The TTL bounds how long
// a crashed holder can block others.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := r.client.Obtain(ctx, redisKeyPrefix+key, redisLockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(redisRetryEvery),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), redisReleaseWait)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.WithError(err).WithField("key", key).Warn("failed to release lock")
		}
	}, nil
}

// Connect dials Redis and checks it responds.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
