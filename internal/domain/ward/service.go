package ward

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/cache"
	"github.com/ehr/ward/internal/platform/db"
)

// PatientReader is satisfied by *patient.Service.
type PatientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// EvolutionReader is satisfied by *evolution.Service.
type EvolutionReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*evolution.Note, error)
}

// LabStore is satisfied by *lab.Service.
type LabStore interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*lab.Result, error)
	ImportResult(ctx context.Context, r *lab.Result) error
}

const bedBoardKey = "beds:board"

type Service struct {
	beds       BedRepository
	history    HistoryRepository
	tx         db.Transactor
	patients   PatientReader
	evolutions EvolutionReader
	labs       LabStore
	logger     zerolog.Logger
	now        func() time.Time

	cache    cache.Store
	cacheTTL time.Duration

	// boardGen is bumped on every invalidation. A board read only fills
	// the cache when no invalidation ran while it was loading.
	boardMu  sync.Mutex
	boardGen uint64
}

func NewService(beds BedRepository, history HistoryRepository, tx db.Transactor,
	patients PatientReader, evolutions EvolutionReader, labs LabStore, logger zerolog.Logger) *Service {
	return &Service{
		beds:       beds,
		history:    history,
		tx:         tx,
		patients:   patients,
		evolutions: evolutions,
		labs:       labs,
		logger:     logger.With().Str("component", "ward").Logger(),
		now:        time.Now,
	}
}

// SetCache serves ListBeds from store for ttl. Mutations drop the entry.
func (s *Service) SetCache(store cache.Store, ttl time.Duration) {
	s.cache = store
	s.cacheTTL = ttl
}

func (s *Service) today() string {
	return s.now().Format(time.DateOnly)
}

func (s *Service) ListBeds(ctx context.Context) ([]*Bed, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, bedBoardKey)
		if err == nil {
			var beds []*Bed
			if err := json.Unmarshal(raw, &beds); err == nil {
				return beds, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("bed board cache read failed")
		}
	}

	s.boardMu.Lock()
	gen := s.boardGen
	s.boardMu.Unlock()

	beds, err := s.beds.List(ctx)
	if err != nil {
		return nil, err
	}
	if beds == nil {
		beds = []*Bed{}
	}
	if s.cache != nil {
		s.storeBoard(ctx, gen, beds)
	}
	return beds, nil
}

func (s *Service) storeBoard(ctx context.Context, gen uint64, beds []*Bed) {
	raw, err := json.Marshal(beds)
	if err != nil {
		return
	}
	s.boardMu.Lock()
	defer s.boardMu.Unlock()
	if gen != s.boardGen {
		return
	}
	if err := s.cache.Set(ctx, bedBoardKey, raw, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("bed board cache write failed")
	}
}

// InvalidateBoard drops the cached bed board. Callers that change data the
// board embeds, such as a patient name, use it after their write.
func (s *Service) InvalidateBoard(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.boardMu.Lock()
	defer s.boardMu.Unlock()
	s.boardGen++
	if err := s.cache.Delete(ctx, bedBoardKey); err != nil {
		s.logger.Warn().Err(err).Msg("bed board cache invalidation failed")
	}
}

func (s *Service) GetBed(ctx context.Context, id int) (*Bed, error) {
	return s.beds.GetByID(ctx, id)
}

// BedForPatient returns the bed the patient occupies, or nil when the
// patient is not admitted.
func (s *Service) BedForPatient(ctx context.Context, patientID uuid.UUID) (*Bed, error) {
	b, err := s.beds.GetByPatient(ctx, patientID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// Assign admits a patient into an available bed and fills the bed with the
// admission snapshot. The bed write and the reads it depends on share one
// transaction.
func (s *Service) Assign(ctx context.Context, patientID uuid.UUID, bedID int, carePlan *CarePlan) (*Bed, error) {
	var out *Bed
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		bed, err := s.beds.GetForUpdate(ctx, bedID)
		if err != nil {
			return err
		}
		if bed.Occupied() {
			return apperr.Conflict("bed %d is occupied", bedID)
		}
		p, err := s.patients.GetPatient(ctx, patientID)
		if err != nil {
			return err
		}
		if p.Admitted() {
			return apperr.Conflict("patient %s already occupies bed %d", patientID, *p.BedID)
		}
		notes, err := s.evolutions.ListByPatient(ctx, patientID)
		if err != nil {
			return err
		}
		labs, err := s.labs.ListByPatient(ctx, patientID, "")
		if err != nil {
			return err
		}

		now := s.now()
		snap := BuildAdmissionSnapshot(p, notes, labs, now)
		plan := CarePlan{}
		if carePlan != nil {
			plan = *carePlan
		}
		admitted := now.Format(time.DateOnly)

		bed.Status = StatusOccupied
		bed.PatientID = &p.ID
		bed.PatientName = &p.Name
		bed.Condition = &snap.Condition
		bed.AdmissionDate = &admitted
		bed.ClinicalSummary = snap.ClinicalSummary
		bed.Plan = snap.Plan
		bed.CarePlan = &plan
		bed.LabSections = snap.LabSections
		if err := s.beds.Occupy(ctx, bed); err != nil {
			return err
		}
		out = bed
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info().Int("bed_id", bedID).Str("patient_id", patientID.String()).Msg("patient admitted")
	return out, nil
}

// UpdateBed applies a partial edit. Available beds only take an empty
// patch. When the patch carries lab sections they are synchronized into
// the permanent lab record after the bed is saved; a sync failure is
// returned with the saved bed.
func (s *Service) UpdateBed(ctx context.Context, bedID int, patch *BedPatch) (*BedUpdate, error) {
	bed, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return &BedUpdate{Bed: bed}, nil
	}
	if !bed.Occupied() {
		return nil, apperr.InvalidState("bed %d is available; assign a patient first", bedID)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	patch.apply(bed)
	if err := s.beds.Save(ctx, bed); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	res := &BedUpdate{Bed: bed}
	if patch.LabSections != nil && bed.PatientID != nil {
		n, err := s.SyncBedLabs(ctx, *bed.PatientID, patch.LabSections)
		res.LabsCreated = n
		if err != nil {
			s.logger.Warn().Err(err).Int("bed_id", bedID).Int("created", n).Msg("lab sync incomplete")
			return res, err
		}
	}
	return res, nil
}

func validatePatch(p *BedPatch) error {
	if p.AdmissionDate != nil {
		if _, err := time.Parse(time.DateOnly, *p.AdmissionDate); err != nil {
			return apperr.Validation("admission_date must be a date formatted YYYY-MM-DD")
		}
	}
	for i, sec := range p.LabSections {
		if _, err := time.Parse(time.DateOnly, sec.Date); err != nil {
			return apperr.Validation("lab_sections[%d].date must be a date formatted YYYY-MM-DD", i)
		}
	}
	return nil
}

// Discharge archives the bed's clinical content and frees the bed in one
// transaction.
func (s *Service) Discharge(ctx context.Context, bedID int) (*DischargedPatient, error) {
	var rec *DischargedPatient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		bed, err := s.beds.GetForUpdate(ctx, bedID)
		if err != nil {
			return err
		}
		if !bed.Occupied() {
			return apperr.InvalidState("bed %d is not occupied", bedID)
		}
		rec = &DischargedPatient{
			BedID:           bed.ID,
			PatientID:       bed.PatientID,
			PatientName:     deref(bed.PatientName),
			Condition:       deref(bed.Condition),
			AdmissionDate:   bed.AdmissionDate,
			ClinicalSummary: orEmpty(bed.ClinicalSummary),
			Plan:            orEmpty(bed.Plan),
			LabSections:     bed.LabSections,
			DischargeDate:   s.today(),
		}
		if rec.LabSections == nil {
			rec.LabSections = []LabSection{}
		}
		if err := s.history.Create(ctx, rec); err != nil {
			return err
		}
		return s.beds.Release(ctx, bedID)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info().Int("bed_id", bedID).Str("discharge_id", rec.ID.String()).Msg("patient discharged")
	return rec, nil
}

func (s *Service) ListDischargeHistory(ctx context.Context, limit, offset int) ([]*DischargedPatient, int, error) {
	return s.history.List(ctx, limit, offset)
}

func (s *Service) GetDischarge(ctx context.Context, id uuid.UUID) (*DischargedPatient, error) {
	return s.history.GetByID(ctx, id)
}

// Seed creates the bed pool 1..count. Existing beds are left untouched.
func (s *Service) Seed(ctx context.Context, count int) (int, error) {
	if count < 1 {
		return 0, apperr.Validation("bed count must be at least 1")
	}
	n, err := s.beds.EnsurePool(ctx, count)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
