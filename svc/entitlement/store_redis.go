package entitlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore mirrors subscription rows in Redis: one JSON string per
// subscription and, per user, a sorted set of subscription IDs scored by
// creation time.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using keys under prefix (default
// "entitlements"). Panics if client is nil.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if client == nil {
		panic("entitlement: redis client is required")
	}
	if prefix == "" {
		prefix = "entitlements"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) subKey(id string) string { return s.prefix + ":sub:" + id }

func (s *RedisStore) userKey(id uuid.UUID) string { return s.prefix + ":user:" + id.String() }

// Save writes sub and indexes it under its user.
func (s *RedisStore) Save(ctx context.Context, sub Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.subKey(sub.ID.String()), data, 0)
		pipe.ZAdd(ctx, s.userKey(sub.UserID), redis.Z{
			Score:  float64(sub.CreatedAt.UnixMilli()),
			Member: sub.ID.String(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

// ListByUser returns the user's subscriptions, newest first. Index entries
// whose record has expired or been deleted are skipped.
func (s *RedisStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	ids, err := s.client.ZRevRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscription ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.subKey(id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	subs := make([]Subscription, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var sub Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("decode subscription %s: %w", ids[i], err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
