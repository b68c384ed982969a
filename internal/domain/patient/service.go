package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/platform/apperr"
)

// BoardInvalidator drops cached views that embed patient names.
// *ward.Service satisfies it.
type BoardInvalidator interface {
	InvalidateBoard(ctx context.Context)
}

type Service struct {
	repo  Repository
	board BoardInvalidator
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetBoard registers the bed board to refresh after a rename.
func (s *Service) SetBoard(b BoardInvalidator) {
	s.board = b
}

func validatePatient(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if _, err := time.Parse(time.DateOnly, p.DOB); err != nil {
		return apperr.Validation("dob must be a date formatted YYYY-MM-DD")
	}
	if !validGenders[p.Gender] {
		return apperr.Validation("invalid gender: %q", p.Gender)
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	p.BedID = nil
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, search, limit, offset)
}

// UpdatePatient replaces the demographic fields. The bed link is not
// editable here; it follows bed assignment and discharge.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in *PatientInput) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName := p.Name
	in.apply(p)
	if err := validatePatient(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.board != nil && p.Admitted() && p.Name != oldName {
		s.board.InvalidateBoard(ctx)
	}
	return p, nil
}

// DeletePatient refuses to remove a patient who still occupies a bed.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Admitted() {
		return apperr.Conflict("patient %s occupies bed %d; discharge first", id, *p.BedID)
	}
	return s.repo.Delete(ctx, id)
}
