// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "logovote:idem:"
	reserveAttempts = 3
)

// RedisStore shares records between server instances
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to redisURL and pings it once
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Reserve claims the key with SET NX. When the key is taken it returns the
// holder's record; a holder that expires between the two calls is retried.
func (s *RedisStore) Reserve(ctx context.Context, record Record, now time.Time) (Record, bool, error) {
	ttl := record.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return Record{}, false, errors.New("reservation already expired")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return Record{}, false, err
	}

	for range reserveAttempts {
		ok, err := s.rdb.SetNX(ctx, keyPrefix+record.Key, raw, ttl).Result()
		if err != nil {
			return Record{}, false, err
		}
		if ok {
			return Record{}, true, nil
		}

		existing, found, err := s.get(ctx, record.Key)
		if err != nil {
			return Record{}, false, err
		}
		if found {
			return existing, false, nil
		}
	}
	return Record{}, false, fmt.Errorf("could not reserve key %q after %d attempts", record.Key, reserveAttempts)
}

func (s *RedisStore) get(ctx context.Context, key string) (Record, bool, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, false, fmt.Errorf("corrupt idempotency record: %w", err)
	}
	return record, true, nil
}

func (s *RedisStore) Complete(ctx context.Context, record Record) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return s.Release(ctx, record.Key)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+record.Key, raw, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}

var _ Store = (*RedisStore)(nil)
