package clinician

import (
	"context"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	return s.repo.GetByID(ctx, userID)
}

// SaveProfile creates or replaces the caller's profile.
func (s *Service) SaveProfile(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		return apperr.Validation("user id is required")
	}
	if p.FullName == "" {
		return apperr.Validation("full_name is required")
	}
	if p.Role == "" {
		p.Role = auth.RoleClinician
	}
	return s.repo.Upsert(ctx, p)
}

func (s *Service) DeleteProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	return s.repo.Delete(ctx, userID)
}
