package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nova-client/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	accessField  = "access_token"
	refreshField = "refresh_token"
)

// RedisStore keeps the token pair in a Redis hash so several processes
// (CLI sessions, scripted jobs) share one session.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisStore stores tokens under "<prefix>:<profile>". A zero ttl keeps
// them until Clear.
func NewRedisStore(client redis.Cmdable, prefix, profile string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("%s:%s", prefix, profile),
		ttl:    ttl,
	}
}

func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) Load(ctx context.Context) (models.TokenPair, error) {
	vals, err := r.client.HMGet(ctx, r.key, accessField, refreshField).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.TokenPair{}, fmt.Errorf("redis token load failed: %w", err)
	}

	var tokens models.TokenPair
	if len(vals) == 2 {
		tokens.Access, _ = vals[0].(string)
		tokens.Refresh, _ = vals[1].(string)
	}
	return tokens, nil
}

func (r *RedisStore) Save(ctx context.Context, tokens models.TokenPair) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, accessField, tokens.Access, refreshField, tokens.Refresh)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis token save failed: %w", err)
	}
	return nil
}

func (r *RedisStore) SaveAccess(ctx context.Context, access string) error {
	if err := r.client.HSet(ctx, r.key, accessField, access).Err(); err != nil {
		return fmt.Errorf("redis token save failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis token clear failed: %w", err)
	}
	return nil
}
