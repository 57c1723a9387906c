package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
)

const keyPrefix = "cart:"

// RedisStore implements Store using Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed cart store. Carts expire ttl after
// their last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get retrieves a session's cart from Redis.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("Cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return decode(data)
}

// SaveIfVersion writes the cart inside a WATCH/MULTI transaction.
func (s *RedisStore) SaveIfVersion(ctx context.Context, c *cart.Cart, expectedVersion int) (bool, error) {
	key := keyPrefix + c.SessionID
	saved := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			stored, err := decode(data)
			if err != nil {
				return err
			}
			current = stored.Version
		}
		if current != expectedVersion {
			return nil
		}

		next := *c
		next.Version = expectedVersion + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		saved = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if saved {
		c.Version = expectedVersion + 1
	}
	return saved, nil
}

// DeleteIfVersion removes the cart inside a WATCH/MULTI transaction.
func (s *RedisStore) DeleteIfVersion(ctx context.Context, sessionID string, expectedVersion int) (bool, error) {
	key := keyPrefix + sessionID
	deleted := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			deleted = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("redis get cart: %w", err)
		}
		stored, err := decode(data)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis del cart: %w", err)
	}
	return deleted, nil
}

// Delete removes a session's cart.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decode(data []byte) (*cart.Cart, error) {
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &c, nil
}
