package scheduling

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/pkg/editwindow"
)

type Service struct {
	appts AppointmentRepository
	loc   *time.Location
	now   func() time.Time
}

// NewService returns a scheduling service. Appointment times are read in
// loc; nil means the process's local zone.
func NewService(appts AppointmentRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{appts: appts, loc: loc, now: time.Now}
}

func (s *Service) startsAt(a *Appointment) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, s.loc)
}

func (s *Service) validate(a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if _, err := s.startsAt(a); err != nil {
		return apperr.Validation("date and time must be formatted YYYY-MM-DD and HH:MM")
	}
	if strings.TrimSpace(a.Doctor) == "" {
		return apperr.Validation("doctor is required")
	}
	if strings.TrimSpace(a.Reason) == "" {
		return apperr.Validation("reason is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return apperr.Validation("invalid status: %q", a.Status)
	}
	if strings.TrimSpace(a.Location) == "" {
		a.Location = DefaultLocation
	}
	return nil
}

func (s *Service) mark(a *Appointment) *Appointment {
	a.Editable = editwindow.IsEditable(&a.CreatedAt, s.now())
	return a
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validate(a); err != nil {
		return err
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return err
	}
	s.mark(a)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mark(a), nil
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	items, err := s.appts.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		s.mark(a)
	}
	return items, nil
}

// Agenda splits the patient's appointments: upcoming are scheduled visits
// that start after now, soonest first; everything else is past, latest first.
func (s *Service) Agenda(ctx context.Context, patientID uuid.UUID) (*Agenda, error) {
	items, err := s.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.split(items, s.now()), nil
}

func (s *Service) split(items []*Appointment, now time.Time) *Agenda {
	type timed struct {
		a  *Appointment
		at time.Time
	}
	var upcoming, past []timed
	for _, a := range items {
		at, err := s.startsAt(a)
		if err == nil && at.After(now) && a.Status == StatusScheduled {
			upcoming = append(upcoming, timed{a, at})
		} else {
			past = append(past, timed{a, at})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].at.Before(upcoming[j].at) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].at.After(past[j].at) })

	ag := &Agenda{Upcoming: []*Appointment{}, Past: []*Appointment{}}
	for _, t := range upcoming {
		ag.Upcoming = append(ag.Upcoming, t.a)
	}
	for _, t := range past {
		ag.Past = append(ag.Past, t.a)
	}
	if len(ag.Upcoming) > 0 {
		ag.Next = ag.Upcoming[0]
	}
	return ag
}

func (s *Service) editable(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editwindow.IsEditable(&a.CreatedAt, s.now()) {
		return nil, apperr.InvalidState("appointment %s is locked after %s", id, editwindow.Window)
	}
	return a, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in *AppointmentInput) (*Appointment, error) {
	a, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(a)
	if err := s.validate(a); err != nil {
		return nil, err
	}
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.mark(a), nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.editable(ctx, id); err != nil {
		return err
	}
	return s.appts.Delete(ctx, id)
}
