// Package outcome tracks the delivery state of the latest notification per
// registration. The state is ephemeral and expires after a TTL.
package outcome

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"numerano/internal/notification/models"
	"numerano/pkg/platform/sentinel"
)

type entry struct {
	record    models.OutcomeRecord
	expiresAt time.Time
}

// InMemory keeps outcomes in process memory.
type InMemory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]entry
}

type Option func(*InMemory)

func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemory(ttl time.Duration, opts ...Option) *InMemory {
	s := &InMemory{ttl: ttl, now: time.Now, items: make(map[uuid.UUID]entry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Set(_ context.Context, registrationID uuid.UUID, record models.OutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[registrationID] = entry{record: record, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Get returns sentinel.ErrNotFound when nothing was recorded or the record
// expired.
func (s *InMemory) Get(_ context.Context, registrationID uuid.UUID) (*models.OutcomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if s.ttl > 0 && !s.now().Before(e.expiresAt) {
		delete(s.items, registrationID)
		return nil, sentinel.ErrNotFound
	}
	record := e.record
	return &record, nil
}
