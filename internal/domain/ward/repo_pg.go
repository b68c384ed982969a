package ward

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/db"
)

type bedRepoPG struct {
	pool *pgxpool.Pool
}

func NewBedRepo(pool *pgxpool.Pool) BedRepository {
	return &bedRepoPG{pool: pool}
}

func (r *bedRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const bedCols = `b.id, b.status, b.patient_id, p.name, b.condition, to_char(b.admission_date, 'YYYY-MM-DD'),
	b.clinical_summary, b.plan, b.care_plan, b.lab_sections, b.updated_at`

const bedFrom = `beds b LEFT JOIN patients p ON p.id = b.patient_id`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.Status, &b.PatientID, &b.PatientName, &b.Condition, &b.AdmissionDate,
		&b.ClinicalSummary, &b.Plan, &b.CarePlan, &b.LabSections, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bedRepoPG) List(ctx context.Context) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+bedCols+` FROM `+bedFrom+` ORDER BY b.id`)
	if err != nil {
		return nil, apperr.FromStore(err, "beds")
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "beds")
		}
		beds = append(beds, b)
	}
	return beds, apperr.FromStore(rows.Err(), "beds")
}

func (r *bedRepoPG) GetByID(ctx context.Context, id int) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM `+bedFrom+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, fmt.Sprintf("bed %d", id))
	}
	return b, nil
}

func (r *bedRepoPG) GetForUpdate(ctx context.Context, id int) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM `+bedFrom+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		return nil, apperr.FromStore(err, fmt.Sprintf("bed %d", id))
	}
	return b, nil
}

func (r *bedRepoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM `+bedFrom+` WHERE b.patient_id = $1`, patientID))
	if err != nil {
		return nil, apperr.FromStore(err, "bed of patient "+patientID.String())
	}
	return b, nil
}

func (r *bedRepoPG) Occupy(ctx context.Context, b *Bed) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE beds SET
			status='occupied', patient_id=$2, condition=$3, admission_date=$4,
			clinical_summary=$5, plan=$6, care_plan=$7, lab_sections=$8, updated_at=NOW()
		WHERE id = $1 AND status = 'available'
		RETURNING updated_at`,
		b.ID, b.PatientID, b.Condition, b.AdmissionDate, b.ClinicalSummary, b.Plan, b.CarePlan, b.LabSections,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict("bed %d is not available", b.ID)
	}
	return apperr.FromStore(err, fmt.Sprintf("bed %d", b.ID))
}

func (r *bedRepoPG) Save(ctx context.Context, b *Bed) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE beds SET
			condition=$2, admission_date=$3, clinical_summary=$4, plan=$5,
			care_plan=$6, lab_sections=$7, updated_at=NOW()
		WHERE id = $1 AND status = 'occupied'
		RETURNING updated_at`,
		b.ID, b.Condition, b.AdmissionDate, b.ClinicalSummary, b.Plan, b.CarePlan, b.LabSections,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.InvalidState("bed %d is not occupied", b.ID)
	}
	return apperr.FromStore(err, fmt.Sprintf("bed %d", b.ID))
}

func (r *bedRepoPG) Release(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET
			status='available', patient_id=NULL, condition=NULL, admission_date=NULL,
			clinical_summary=NULL, plan=NULL, care_plan=NULL, lab_sections=NULL, updated_at=NOW()
		WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, fmt.Sprintf("bed %d", id))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("bed %d not found", id)
	}
	return nil
}

func (r *bedRepoPG) EnsurePool(ctx context.Context, count int) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO beds (id) SELECT generate_series(1, $1::int) ON CONFLICT (id) DO NOTHING`, count)
	if err != nil {
		return 0, apperr.FromStore(err, "beds")
	}
	return int(tag.RowsAffected()), nil
}

type historyRepoPG struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

func (r *historyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const historyCols = `id, bed_id, patient_id, patient_name, condition, to_char(admission_date, 'YYYY-MM-DD'),
	clinical_summary, plan, lab_sections, to_char(discharge_date, 'YYYY-MM-DD'), created_at`

func scanDischarge(row pgx.Row) (*DischargedPatient, error) {
	var d DischargedPatient
	err := row.Scan(&d.ID, &d.BedID, &d.PatientID, &d.PatientName, &d.Condition, &d.AdmissionDate,
		&d.ClinicalSummary, &d.Plan, &d.LabSections, &d.DischargeDate, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *historyRepoPG) Create(ctx context.Context, d *DischargedPatient) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO discharge_history (
			id, bed_id, patient_id, patient_name, condition, admission_date,
			clinical_summary, plan, lab_sections, discharge_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		d.ID, d.BedID, d.PatientID, d.PatientName, d.Condition, d.AdmissionDate,
		d.ClinicalSummary, d.Plan, d.LabSections, d.DischargeDate,
	).Scan(&d.CreatedAt)
	return apperr.FromStore(err, "discharge record")
}

func (r *historyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DischargedPatient, error) {
	d, err := scanDischarge(r.conn(ctx).QueryRow(ctx, `SELECT `+historyCols+` FROM discharge_history WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "discharge record "+id.String())
	}
	return d, nil
}

func (r *historyRepoPG) List(ctx context.Context, limit, offset int) ([]*DischargedPatient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM discharge_history`).Scan(&total); err != nil {
		return nil, 0, apperr.FromStore(err, "discharge history")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+historyCols+` FROM discharge_history
		ORDER BY discharge_date DESC, created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromStore(err, "discharge history")
	}
	defer rows.Close()

	var items []*DischargedPatient
	for rows.Next() {
		d, err := scanDischarge(rows)
		if err != nil {
			return nil, 0, apperr.FromStore(err, "discharge history")
		}
		items = append(items, d)
	}
	return items, total, apperr.FromStore(rows.Err(), "discharge history")
}
