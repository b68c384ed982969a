package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const prescriptionCols = `id, patient_id, doctor_name, doctor_license, to_char(date, 'YYYY-MM-DD'), diagnosis,
	weight, height, temperature, diet, allergies_snapshot, care_plan, medications, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorName, &p.DoctorLicense, &p.Date, &p.Diagnosis,
		&p.Weight, &p.Height, &p.Temperature, &p.Diet, &p.AllergiesSnapshot, &p.CarePlan, &p.Medications, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (
			id, patient_id, doctor_name, doctor_license, date, diagnosis,
			weight, height, temperature, diet, allergies_snapshot, care_plan, medications
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		p.ID, p.PatientID, p.DoctorName, p.DoctorLicense, p.Date, p.Diagnosis,
		p.Weight, p.Height, p.Temperature, p.Diet, p.AllergiesSnapshot, p.CarePlan, p.Medications,
	).Scan(&p.CreatedAt)
	return apperr.FromStore(err, "prescription")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "prescription "+id.String())
	}
	return p, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1
		ORDER BY date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, apperr.FromStore(err, "prescriptions")
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "prescriptions")
		}
		items = append(items, p)
	}
	return items, apperr.FromStore(rows.Err(), "prescriptions")
}
