package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, patient_id, to_char(date, 'YYYY-MM-DD'), time, doctor, reason, status, location, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Doctor, &a.Reason, &a.Status, &a.Location, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, date, time, doctor, reason, status, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		a.ID, a.PatientID, a.Date, a.Time, a.Doctor, a.Reason, a.Status, a.Location,
	).Scan(&a.CreatedAt)
	return apperr.FromStore(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "appointment "+id.String())
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET date=$2, time=$3, doctor=$4, reason=$5, status=$6, location=$7
		WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Doctor, a.Reason, a.Status, a.Location,
	)
	if err != nil {
		return apperr.FromStore(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment %s not found", a.ID)
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment %s not found", id)
	}
	return nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE patient_id = $1 ORDER BY date, time`, patientID)
	if err != nil {
		return nil, apperr.FromStore(err, "appointments")
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "appointments")
		}
		items = append(items, a)
	}
	return items, apperr.FromStore(rows.Err(), "appointments")
}
