package ward

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/db"
)

// -- In-memory bed and history repositories --

type memBeds struct {
	beds     map[int]*Bed
	patients *fakePatients
}

func newMemBeds(n int) *memBeds {
	m := &memBeds{beds: make(map[int]*Bed)}
	m.EnsurePool(context.Background(), n)
	return m
}

func cloneBed(b *Bed) *Bed {
	c := *b
	return &c
}

func (m *memBeds) List(_ context.Context) ([]*Bed, error) {
	var out []*Bed
	for _, b := range m.beds {
		out = append(out, m.withName(cloneBed(b)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBeds) withName(b *Bed) *Bed {
	if b.PatientID != nil && m.patients != nil {
		if p, ok := m.patients.items[*b.PatientID]; ok {
			name := p.Name
			b.PatientName = &name
		}
	}
	return b
}

func (m *memBeds) GetByID(_ context.Context, id int) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, apperr.NotFound("bed %d not found", id)
	}
	return m.withName(cloneBed(b)), nil
}

func (m *memBeds) GetForUpdate(ctx context.Context, id int) (*Bed, error) {
	return m.GetByID(ctx, id)
}

func (m *memBeds) GetByPatient(_ context.Context, patientID uuid.UUID) (*Bed, error) {
	for _, b := range m.beds {
		if b.PatientID != nil && *b.PatientID == patientID {
			return m.withName(cloneBed(b)), nil
		}
	}
	return nil, apperr.NotFound("bed of patient %s not found", patientID)
}

func (m *memBeds) Occupy(_ context.Context, b *Bed) error {
	cur, ok := m.beds[b.ID]
	if !ok || cur.Status != StatusAvailable {
		return apperr.Conflict("bed %d is not available", b.ID)
	}
	for _, other := range m.beds {
		if other.PatientID != nil && *other.PatientID == *b.PatientID {
			return apperr.Conflict("bed already exists")
		}
	}
	b.UpdatedAt = time.Now()
	m.beds[b.ID] = cloneBed(b)
	return nil
}

func (m *memBeds) Save(_ context.Context, b *Bed) error {
	cur, ok := m.beds[b.ID]
	if !ok || cur.Status != StatusOccupied {
		return apperr.InvalidState("bed %d is not occupied", b.ID)
	}
	b.UpdatedAt = time.Now()
	m.beds[b.ID] = cloneBed(b)
	return nil
}

func (m *memBeds) Release(_ context.Context, id int) error {
	if _, ok := m.beds[id]; !ok {
		return apperr.NotFound("bed %d not found", id)
	}
	m.beds[id] = &Bed{ID: id, Status: StatusAvailable, UpdatedAt: time.Now()}
	return nil
}

func (m *memBeds) EnsurePool(_ context.Context, count int) (int, error) {
	created := 0
	for i := 1; i <= count; i++ {
		if _, ok := m.beds[i]; !ok {
			m.beds[i] = &Bed{ID: i, Status: StatusAvailable}
			created++
		}
	}
	return created, nil
}

type memHistory struct {
	items []*DischargedPatient
}

func (m *memHistory) Create(_ context.Context, d *DischargedPatient) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.items = append(m.items, d)
	return nil
}

func (m *memHistory) GetByID(_ context.Context, id uuid.UUID) (*DischargedPatient, error) {
	for _, d := range m.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperr.NotFound("discharge record %s not found", id)
}

func (m *memHistory) List(_ context.Context, limit, offset int) ([]*DischargedPatient, int, error) {
	out := make([]*DischargedPatient, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		out = append(out, m.items[i])
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

// -- Collaborator fakes --

type fakePatients struct {
	items map[uuid.UUID]*patient.Patient
	beds  *memBeds
}

// GetPatient derives BedID from the bed repository, as the store does.
func (f *fakePatients) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	c := *p
	c.BedID = nil
	for _, b := range f.beds.beds {
		if b.PatientID != nil && *b.PatientID == id {
			bid := b.ID
			c.BedID = &bid
		}
	}
	return &c, nil
}

type fakeEvolutions struct {
	notes map[uuid.UUID][]*evolution.Note
}

func (f *fakeEvolutions) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*evolution.Note, error) {
	return f.notes[patientID], nil
}

type fakeLabs struct {
	results []*lab.Result
	failOn  string
}

func (f *fakeLabs) ListByPatient(_ context.Context, patientID uuid.UUID, resultType string) ([]*lab.Result, error) {
	var out []*lab.Result
	for _, r := range f.results {
		if r.PatientID == patientID && (resultType == "" || r.ResultType == resultType) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLabs) ImportResult(_ context.Context, r *lab.Result) error {
	if f.failOn != "" && r.TestName == f.failOn {
		return errors.New("connection reset")
	}
	r.ID = uuid.New()
	f.results = append(f.results, r)
	return nil
}

type fixture struct {
	svc      *Service
	beds     *memBeds
	history  *memHistory
	patients *fakePatients
	notes    *fakeEvolutions
	labs     *fakeLabs
}

var testNow = time.Date(2026, 4, 15, 9, 30, 0, 0, time.UTC)

func newFixture(bedCount int) *fixture {
	beds := newMemBeds(bedCount)
	f := &fixture{
		beds:     beds,
		history:  &memHistory{},
		patients: &fakePatients{items: make(map[uuid.UUID]*patient.Patient), beds: beds},
		notes:    &fakeEvolutions{notes: make(map[uuid.UUID][]*evolution.Note)},
		labs:     &fakeLabs{},
	}
	beds.patients = f.patients
	f.svc = NewService(beds, f.history, db.NoTx{}, f.patients, f.notes, f.labs, zerolog.Nop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) addPatient(name string) *patient.Patient {
	p := &patient.Patient{
		ID:                uuid.New(),
		Name:              name,
		DOB:               "1950-06-01",
		Gender:            patient.GenderMale,
		ChronicConditions: []string{"Hipertensión arterial"},
	}
	f.patients.items[p.ID] = p
	return p
}
