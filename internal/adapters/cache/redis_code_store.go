package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tradepulse/settlement-service/internal/ports"
)

// RedisCodeStore keeps withdrawal confirmation codes in Redis. The TTL on
// the key is the confirmation window; a lapsed key reads as no code.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Put(ctx context.Context, withdrawalID uuid.UUID, code ports.WithdrawalCode, ttl time.Duration) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "settlement:wdcode:"+withdrawalID.String(), raw, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, withdrawalID uuid.UUID) (*ports.WithdrawalCode, error) {
	raw, err := s.client.Get(ctx, "settlement:wdcode:"+withdrawalID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out ports.WithdrawalCode
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, withdrawalID uuid.UUID) error {
	return s.client.Del(ctx, "settlement:wdcode:"+withdrawalID.String()).Err()
}
