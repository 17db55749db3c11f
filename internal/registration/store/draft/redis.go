package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"numerano/internal/registration/models"
	"numerano/pkg/platform/sentinel"
)

const draftKeyPrefix = "numerano:draft:"

// RedisStore keeps draft sessions as JSON with a sliding TTL. Saves use
// WATCH so a concurrent writer turns into ErrConflict.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, session *models.DraftSession) error {
	session.Version = 1
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	ok, err := s.client.SetNX(ctx, draftKey(session.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create draft: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.get(ctx, s.client, id)
}

func (s *RedisStore) Save(ctx context.Context, session *models.DraftSession) error {
	key := draftKey(session.ID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := s.get(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		if stored.Version != session.Version {
			return sentinel.ErrConflict
		}

		next := session.Clone()
		next.Version++
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		session.Version = next.Version
		return nil
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return sentinel.ErrConflict
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
		return err
	default:
		return fmt.Errorf("save draft: %w: %w", sentinel.ErrUnavailable, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, c getter, id uuid.UUID) (*models.DraftSession, error) {
	raw, err := c.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w: %w", sentinel.ErrUnavailable, err)
	}
	var session models.DraftSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &session, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}
