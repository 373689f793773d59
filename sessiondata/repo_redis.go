package sessiondata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const entryKeyPrefix = "sessiondata:"

// RedisRepo stores session data entries in Redis, allowing the authorize
// endpoint to run as multiple replicas. Key TTL enforcement and the
// consume-once guarantee (GETDEL) are both delegated to Redis, which gives
// per-key atomicity without any locking on our side.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepo creates a Redis-backed session data cache.
func NewRedisRepo(client *redis.Client, ttl time.Duration) (*RedisRepo, error) {
	if client == nil {
		return nil, errors.New("[NewRedisRepo] redis client is required")
	}
	return &RedisRepo{client: client, ttl: ttl}, nil
}

// Store saves an entry under key with the configured TTL.
func (r *RedisRepo) Store(ctx context.Context, key string, entry *Entry) error {
	if key == "" {
		return errors.New("[RedisRepo.Store] key is required")
	}
	if entry == nil {
		return errors.New("[RedisRepo.Store] entry is required")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Store] marshal entry")
	}
	if err := r.client.Set(ctx, entryKeyPrefix+key, payload, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Store] redis set")
	}
	return nil
}

// Consume retrieves and removes the entry for key.
func (r *RedisRepo) Consume(ctx context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, ErrEntryNotFound
	}

	payload, err := r.client.GetDel(ctx, entryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Consume] redis getdel")
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Consume] unmarshal entry")
	}
	return &entry, nil
}

// Delete removes the entry for key.
func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("[RedisRepo.Delete] key is required")
	}
	if err := r.client.Del(ctx, entryKeyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "[RedisRepo.Delete] redis del")
	}
	return nil
}
