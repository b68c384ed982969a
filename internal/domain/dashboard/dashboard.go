// Package dashboard assembles the read models the ward client renders: the
// ward overview and a single patient's chart. Each read fans out to the
// domain services concurrently and fails as a whole if any part fails.
package dashboard

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
	"github.com/ehr/ward/internal/domain/prescription"
	"github.com/ehr/ward/internal/domain/scheduling"
	"github.com/ehr/ward/internal/domain/ward"
	"github.com/ehr/ward/pkg/pagination"
)

type Patients interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	ListPatients(ctx context.Context, search string, limit, offset int) ([]*patient.Patient, int, error)
}

type Beds interface {
	ListBeds(ctx context.Context) ([]*ward.Bed, error)
	BedForPatient(ctx context.Context, patientID uuid.UUID) (*ward.Bed, error)
	ListDischargeHistory(ctx context.Context, limit, offset int) ([]*ward.DischargedPatient, int, error)
}

type Agendas interface {
	Agenda(ctx context.Context, patientID uuid.UUID) (*scheduling.Agenda, error)
}

type Evolutions interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*evolution.Note, error)
}

type Labs interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*lab.Result, error)
}

type Prescriptions interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error)
}

// Overview is the ward-wide state loaded when a clinician opens the app.
type Overview struct {
	Patients      []*patient.Patient        `json:"patients"`
	PatientsTotal int                       `json:"patients_total"`
	Beds          []*ward.Bed               `json:"beds"`
	Occupied      int                       `json:"occupied"`
	Discharges    []*ward.DischargedPatient `json:"discharges"`
}

// Chart is one patient's full record. Notes and appointments carry their
// editable flag.
type Chart struct {
	Patient       *patient.Patient             `json:"patient"`
	Bed           *ward.Bed                    `json:"bed"`
	Agenda        *scheduling.Agenda           `json:"agenda"`
	Evolutions    []*evolution.Note            `json:"evolutions"`
	Labs          []*lab.Result                `json:"labs"`
	Prescriptions []*prescription.Prescription `json:"prescriptions"`
}

type Service struct {
	patients      Patients
	beds          Beds
	agendas       Agendas
	evolutions    Evolutions
	labs          Labs
	prescriptions Prescriptions
}

func NewService(patients Patients, beds Beds, agendas Agendas, evolutions Evolutions, labs Labs, prescriptions Prescriptions) *Service {
	return &Service{
		patients:      patients,
		beds:          beds,
		agendas:       agendas,
		evolutions:    evolutions,
		labs:          labs,
		prescriptions: prescriptions,
	}
}

func (s *Service) Load(ctx context.Context) (*Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, total, err := s.patients.ListPatients(ctx, "", pagination.MaxLimit, 0)
		out.Patients, out.PatientsTotal = items, total
		return err
	})
	g.Go(func() error {
		beds, err := s.beds.ListBeds(ctx)
		out.Beds = beds
		return err
	})
	g.Go(func() error {
		items, _, err := s.beds.ListDischargeHistory(ctx, pagination.MaxLimit, 0)
		out.Discharges = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, b := range out.Beds {
		if b.Occupied() {
			out.Occupied++
		}
	}
	if out.Patients == nil {
		out.Patients = []*patient.Patient{}
	}
	if out.Beds == nil {
		out.Beds = []*ward.Bed{}
	}
	if out.Discharges == nil {
		out.Discharges = []*ward.DischargedPatient{}
	}
	return &out, nil
}

func (s *Service) PatientChart(ctx context.Context, patientID uuid.UUID) (*Chart, error) {
	// Resolve the patient first so an unknown id is reported as such.
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := Chart{Patient: p}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Bed, err = s.beds.BedForPatient(ctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		out.Agenda, err = s.agendas.Agenda(ctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		out.Evolutions, err = s.evolutions.ListByPatient(ctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		out.Labs, err = s.labs.ListByPatient(ctx, patientID, "")
		return err
	})
	g.Go(func() (err error) {
		out.Prescriptions, err = s.prescriptions.ListByPatient(ctx, patientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if out.Evolutions == nil {
		out.Evolutions = []*evolution.Note{}
	}
	if out.Labs == nil {
		out.Labs = []*lab.Result{}
	}
	if out.Prescriptions == nil {
		out.Prescriptions = []*prescription.Prescription{}
	}
	return &out, nil
}
