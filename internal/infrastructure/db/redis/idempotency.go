package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/routedesk/logistics-api/internal/core/ports"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore keeps the order claimed by each Idempotency-Key.
// Key format: idem:order:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Claim writes rec with SETNX. When another request already holds the key the
// stored record is read back and returned instead.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, rec ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency encode: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(key), raw, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	held, err := s.get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if held == nil {
		// expired between SETNX and GET
		return s.Claim(ctx, key, rec)
	}
	return held, false, nil
}

// Settle overwrites the record and keeps the TTL set by Claim.
func (s *IdempotencyStore) Settle(ctx context.Context, key string, rec ports.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("idempotency settle: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	var rec ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return &rec, nil
}

func (s *IdempotencyStore) key(k string) string {
	return "idem:order:" + k
}
