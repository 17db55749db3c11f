package draft

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"numerano/internal/registration/models"
	"numerano/pkg/platform/sentinel"
)

type entry struct {
	session   *models.DraftSession
	expiresAt time.Time
}

// InMemory keeps draft sessions in process memory with a sliding TTL.
type InMemory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]entry
}

type Option func(*InMemory)

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemory(ttl time.Duration, opts ...Option) *InMemory {
	s := &InMemory{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[uuid.UUID]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Create(_ context.Context, session *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[session.ID]; ok && !s.expired(e) {
		return sentinel.ErrConflict
	}
	session.Version = 1
	s.items[session.ID] = entry{session: session.Clone(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemory) Get(_ context.Context, id uuid.UUID) (*models.DraftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok || s.expired(e) {
		delete(s.items, id)
		return nil, sentinel.ErrNotFound
	}
	return e.session.Clone(), nil
}

// Save stores session if its Version still matches the stored one, then
// bumps Version. A stale version returns ErrConflict.
func (s *InMemory) Save(_ context.Context, session *models.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[session.ID]
	if !ok || s.expired(e) {
		delete(s.items, session.ID)
		return sentinel.ErrNotFound
	}
	if e.session.Version != session.Version {
		return sentinel.ErrConflict
	}
	session.Version++
	s.items[session.ID] = entry{session: session.Clone(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *InMemory) expired(e entry) bool {
	return s.ttl > 0 && !s.now().Before(e.expiresAt)
}
