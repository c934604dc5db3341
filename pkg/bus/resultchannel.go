package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is one of the progress tokens published over the result
// channel while a job is in flight.
type State string

const (
	StatePending    State = "PENDING"
	StateProcessing State = "PROCESSING"
	StateSuccess    State = "SUCCESS"
	StateFailure    State = "FAILURE"
)

const resultChannelTTL = time.Hour

// ResultChannel is the C3 result-state channel, separate from the
// durable job queue, used by the worker to publish coarse progress and
// by the ingress controller's result fallback to read it back.
type ResultChannel interface {
	Publish(ctx context.Context, taskID string, state State) error
	Get(ctx context.Context, taskID string) (State, bool, error)
	Close() error
}

// RedisResultChannel is the ResultChannel implementation.
type RedisResultChannel struct {
	client *redis.Client
}

func NewRedisResultChannel(redisURL string) (*RedisResultChannel, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisResultChannel{client: redis.NewClient(opts)}, nil
}

func (c *RedisResultChannel) Close() error { return c.client.Close() }

func resultChannelKey(taskID string) string {
	return "visionq:state:" + taskID
}

func (c *RedisResultChannel) Publish(ctx context.Context, taskID string, state State) error {
	return c.client.Set(ctx, resultChannelKey(taskID), string(state), resultChannelTTL).Err()
}

func (c *RedisResultChannel) Get(ctx context.Context, taskID string) (State, bool, error) {
	val, err := c.client.Get(ctx, resultChannelKey(taskID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get result channel state for %s: %w", taskID, err)
	}
	return State(val), true, nil
}
