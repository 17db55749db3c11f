package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"numerano/internal/registration/models"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/sentinel"
)

// ListFilter narrows the admin list. Query matches team name, team id or
// lead name, case-insensitively. An empty Status matches every status.
type ListFilter struct {
	Query  string
	Status models.Status
}

// ListResult is the filtered registrations plus counts over all of them.
type ListResult struct {
	Registrations []*models.Registration
	Counts        models.StatusCounts
}

// ListRegistrations returns matching registrations, newest first.
func (s *Service) ListRegistrations(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter")
	}
	all, err := s.registrations.List(ctx)
	if err != nil {
		return nil, readError(err, "registrations")
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := &ListResult{Registrations: make([]*models.Registration, 0, len(all))}
	for _, reg := range all {
		result.Counts.Add(reg.Status)
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		if query != "" && !matchesQuery(reg, query) {
			continue
		}
		result.Registrations = append(result.Registrations, reg)
	}
	return result, nil
}

func matchesQuery(reg *models.Registration, query string) bool {
	if strings.Contains(strings.ToLower(reg.TeamName), query) ||
		strings.Contains(strings.ToLower(reg.TeamID), query) {
		return true
	}
	lead, ok := reg.Lead()
	return ok && strings.Contains(strings.ToLower(lead.Name), query)
}

func (s *Service) GetRegistration(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return nil, readError(err, "registration")
	}
	return reg, nil
}

// StatusByTeamID backs the public status page.
func (s *Service) StatusByTeamID(ctx context.Context, teamID string) (*models.Registration, error) {
	teamID = strings.ToUpper(strings.TrimSpace(teamID))
	if teamID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "team id is required")
	}
	reg, err := s.registrations.FindByTeamID(ctx, teamID)
	if err != nil {
		return nil, readError(err, "registration")
	}
	return reg, nil
}

// IDCard returns the stored student ID document of a registration.
func (s *Service) IDCard(ctx context.Context, id uuid.UUID) (*models.IDCard, error) {
	reg, err := s.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reg.StudentIDCard.IsComplete() {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration has no student ID card")
	}
	card := *reg.StudentIDCard
	return &card, nil
}

func readError(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrPermissionDenied):
		return dErrors.Wrap(err, dErrors.CodePermissionDenied, msgPermissionDenied)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, msgUnavailable)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
}
