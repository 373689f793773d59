package authfw

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "authfw:result:"

// RedisResultRepo stores authentication results in Redis so the authorize
// endpoint can run as multiple replicas behind a load balancer. Expiry is
// delegated to the Redis key TTL; consumption uses GETDEL so a result can
// only ever be read once.
type RedisResultRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultRepo creates a Redis-backed result cache.
func NewRedisResultRepo(client *redis.Client, ttl time.Duration) (*RedisResultRepo, error) {
	if client == nil {
		return nil, errors.New("[NewRedisResultRepo] redis client is required")
	}
	return &RedisResultRepo{client: client, ttl: ttl}, nil
}

// Store saves the result under the session data key with the configured TTL.
func (r *RedisResultRepo) Store(ctx context.Context, sessionDataKey string, result *Result) error {
	if sessionDataKey == "" {
		return errors.New("[RedisResultRepo.Store] sessionDataKey is required")
	}
	if result == nil {
		return errors.New("[RedisResultRepo.Store] result is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "[RedisResultRepo.Store] marshal result")
	}
	if err := r.client.Set(ctx, resultKeyPrefix+sessionDataKey, payload, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisResultRepo.Store] redis set")
	}
	return nil
}

// Consume retrieves and removes the result for the session data key.
func (r *RedisResultRepo) Consume(ctx context.Context, sessionDataKey string) (*Result, error) {
	if sessionDataKey == "" {
		return nil, ErrResultNotFound
	}

	payload, err := r.client.GetDel(ctx, resultKeyPrefix+sessionDataKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisResultRepo.Consume] redis getdel")
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, errors.Wrap(err, "[RedisResultRepo.Consume] unmarshal result")
	}
	return &result, nil
}
