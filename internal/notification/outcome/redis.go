package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"numerano/internal/notification/models"
	"numerano/pkg/platform/sentinel"
)

const outcomeKeyPrefix = "numerano:notification:"

// RedisStore keeps outcomes as JSON values with a TTL so several server
// instances report the same state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Set(ctx context.Context, registrationID uuid.UUID, record models.OutcomeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	if err := s.client.Set(ctx, outcomeKey(registrationID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set outcome: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, registrationID uuid.UUID) (*models.OutcomeRecord, error) {
	payload, err := s.client.Get(ctx, outcomeKey(registrationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome: %w: %w", sentinel.ErrUnavailable, err)
	}
	var record models.OutcomeRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	return &record, nil
}

func outcomeKey(id uuid.UUID) string {
	return outcomeKeyPrefix + id.String()
}
