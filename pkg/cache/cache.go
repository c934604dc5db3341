// Package cache implements the worker liveness registry backing the
// health check's bus leg: each worker periodically heartbeats into
// Redis, and the API process answers "is at least one worker active?"
// by counting unexpired heartbeat keys, without an AMQP management API
// call from the HTTP process.
//
// An earlier revision of this package also kept a transient,
// Redis-backed progress echo keyed by task id (a second, parallel
// in-flight-progress mechanism alongside the Message Bus's result
// channel). Nothing ever read it: the documented result-query fallback
// consults the Result Store and then the bus's result channel only, so
// the progress echo was ballast. It has been removed rather than wired
// in behind a false pretense of use.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cuemby/visionq/internal/apperr"
)

// Cache is the worker-liveness contract used by the health check.
type Cache interface {
	HeartbeatWorker(ctx context.Context, workerID string) error
	ActiveWorkers(ctx context.Context) (int, error)
	Close() error
}

// RedisCache is the Cache implementation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

const (
	workerKeyPrefix    = "visionq:worker:"
	workerHeartbeatTTL = 30 * time.Second
)

// NewRedisCache dials redisURL. ttl is currently unused by any key this
// cache writes; it is kept on the constructor so callers don't need to
// change when a TTL-bearing key is reintroduced.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperr.NewCache(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

// HeartbeatWorker records that a worker is alive, used by the ingress
// health check's bus leg to answer "is at least one worker active?"
// without depending on an AMQP management API call from the HTTP
// process.
func (c *RedisCache) HeartbeatWorker(ctx context.Context, workerID string) error {
	if err := c.client.Set(ctx, workerKeyPrefix+workerID, time.Now().Unix(), workerHeartbeatTTL).Err(); err != nil {
		return apperr.NewCache(err, "heartbeat worker %s", workerID)
	}
	return nil
}

func (c *RedisCache) ActiveWorkers(ctx context.Context) (int, error) {
	keys, err := c.client.Keys(ctx, workerKeyPrefix+"*").Result()
	if err != nil {
		return 0, apperr.NewCache(err, "list active workers")
	}
	return len(keys), nil
}
