package prescription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/domain/clinician"
	"github.com/ehr/ward/internal/domain/patient"
	"github.com/ehr/ward/internal/domain/ward"
	"github.com/ehr/ward/internal/platform/apperr"
)

type PatientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// BedFinder is satisfied by *ward.Service.
type BedFinder interface {
	BedForPatient(ctx context.Context, patientID uuid.UUID) (*ward.Bed, error)
}

// ProfileReader is satisfied by *clinician.Service.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*clinician.Profile, error)
}

type Service struct {
	repo     Repository
	patients PatientReader
	beds     BedFinder
	profiles ProfileReader
	now      func() time.Time
}

func NewService(repo Repository, patients PatientReader, beds BedFinder, profiles ProfileReader) *Service {
	return &Service{repo: repo, patients: patients, beds: beds, profiles: profiles, now: time.Now}
}

// CreatePrescription fills the snapshots and defaults and stores p.
// userID identifies the prescribing clinician.
func (s *Service) CreatePrescription(ctx context.Context, p *Prescription, userID string) error {
	p.Diagnosis = strings.TrimSpace(p.Diagnosis)
	if p.Diagnosis == "" {
		return apperr.Validation("diagnosis is required")
	}
	pat, err := s.patients.GetPatient(ctx, p.PatientID)
	if err != nil {
		return err
	}
	p.AllergiesSnapshot = append([]string{}, pat.Allergies...)

	p.CarePlan = ward.CarePlan{}
	bed, err := s.beds.BedForPatient(ctx, p.PatientID)
	if err != nil {
		return err
	}
	if bed != nil && bed.CarePlan != nil {
		p.CarePlan = *bed.CarePlan
	}

	if err := s.signWith(ctx, p, userID); err != nil {
		return err
	}
	if p.Date == "" {
		p.Date = s.now().Format(time.DateOnly)
	}
	if p.Diet == "" {
		p.Diet = DefaultDiet
	}
	meds := make([]MedicationItem, 0, len(p.Medications))
	for _, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		m.applyDefaults()
		meds = append(meds, m)
	}
	p.Medications = meds

	return s.repo.Create(ctx, p)
}

// signWith sets the doctor fields from the caller's profile. A missing
// profile falls back to the default signature.
func (s *Service) signWith(ctx context.Context, p *Prescription, userID string) error {
	p.DoctorName, p.DoctorLicense = DefaultDoctor, ""
	if userID == "" || s.profiles == nil {
		return nil
	}
	prof, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if prof.FullName != "" {
		p.DoctorName = prof.FullName
	}
	p.DoctorLicense = prof.LicenseNumber
	return nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
