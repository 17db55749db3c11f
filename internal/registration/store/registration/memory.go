package registration

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"numerano/internal/registration/models"
	"numerano/pkg/email"
	"numerano/pkg/platform/sentinel"
)

// InMemory is a registration store for development and tests.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.Registration
	byTeamID map[string]uuid.UUID
	// emails counts registrations per normalized member email.
	emails map[string]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[uuid.UUID]*models.Registration),
		byTeamID: make(map[string]uuid.UUID),
		emails:   make(map[string]int),
	}
}

func (s *InMemory) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byTeamID[reg.TeamID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[reg.ID] = reg.Clone()
	s.byTeamID[reg.TeamID] = reg.ID
	for _, addr := range email.NormalizeAll(reg.MemberEmails()) {
		s.emails[addr]++
	}
	return nil
}

// List returns every registration, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registration, 0, len(s.byID))
	for _, reg := range s.byID {
		out = append(out, reg.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Registration) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.TeamID, b.TeamID)
	})
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (s *InMemory) FindByTeamID(_ context.Context, teamID string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTeamID[teamID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// UpdateStatus moves a registration from one status to another. It fails
// with ErrInvalidState when the stored status is no longer from.
func (s *InMemory) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if reg.Status != from {
		return nil, sentinel.ErrInvalidState
	}
	reg.Status = to
	reg.UpdatedAt = at
	return reg.Clone(), nil
}

// ExistingMemberEmails returns the normalized candidates that already belong
// to a stored registration, in candidate order.
func (s *InMemory) ExistingMemberEmails(_ context.Context, candidates []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	for _, addr := range email.NormalizeAll(candidates) {
		if s.emails[addr] > 0 {
			found = append(found, addr)
		}
	}
	return found, nil
}
