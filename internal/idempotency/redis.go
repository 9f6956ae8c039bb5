package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "idem:"

// RedisCache shares idempotency state across instances. Admit relies on
// SETNX so only one caller can reserve a key, everyone else observes the
// stored record.
type RedisCache struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisCache(client *redis.Client, retention time.Duration) *RedisCache {
	return &RedisCache{client: client, retention: retention}
}

func (r *RedisCache) Admit(ctx context.Context, key, fingerprint string) (Outcome, *StoredResponse, error) {
	rec := Record{
		Fingerprint: fingerprint,
		State:       stateInFlight,
		CreatedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return Conflict, nil, err
	}

	set, err := r.client.SetNX(ctx, redisKeyPrefix+key, raw, r.retention).Result()
	if err != nil {
		return Conflict, nil, fmt.Errorf("idempotency admit: %w", err)
	}
	if set {
		return Proceed, nil, nil
	}

	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		// Reservation expired between SETNX and GET; treat as a fresh request.
		return r.Admit(ctx, key, fingerprint)
	}
	if err != nil {
		return Conflict, nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	var existing Record
	if err := json.Unmarshal(data, &existing); err != nil {
		return Conflict, nil, fmt.Errorf("idempotency decode: %w", err)
	}
	if existing.Fingerprint != fingerprint {
		return Conflict, nil, ErrFingerprintMismatch
	}
	if existing.State == stateCompleted {
		return Replay, existing.Response, nil
	}
	return Conflict, nil, nil
}

func (r *RedisCache) Complete(ctx context.Context, key string, resp StoredResponse) error {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("idempotency decode: %w", err)
	}
	rec.State = stateCompleted
	rec.Response = &resp

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, raw, redis.KeepTTL).Err()
}

func (r *RedisCache) Forget(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key).Err()
}
