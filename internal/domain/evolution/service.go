package evolution

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/pkg/editwindow"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func validateNote(n *Note) error {
	if n.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if _, err := time.Parse(time.DateOnly, n.Date); err != nil {
		return apperr.Validation("date must be a date formatted YYYY-MM-DD")
	}
	if n.Severity == "" {
		n.Severity = SeverityLow
	}
	if !validSeverities[n.Severity] {
		return apperr.Validation("invalid severity: %q", n.Severity)
	}
	return nil
}

func (s *Service) mark(n *Note) *Note {
	n.Editable = editwindow.IsEditable(&n.CreatedAt, s.now())
	return n
}

func (s *Service) CreateNote(ctx context.Context, n *Note) error {
	if err := validateNote(n); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.mark(n)
	return nil
}

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mark(n), nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, n := range items {
		s.mark(n)
	}
	return items, nil
}

// editable loads the note and fails with InvalidState once its edit window
// has closed.
func (s *Service) editable(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editwindow.IsEditable(&n.CreatedAt, s.now()) {
		return nil, apperr.InvalidState("evolution note %s is locked after %s", id, editwindow.Window)
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, id uuid.UUID, in *NoteInput) (*Note, error) {
	n, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(n)
	if err := validateNote(n); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return s.mark(n), nil
}

func (s *Service) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if _, err := s.editable(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
