package evolution

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

const noteCols = `id, patient_id, to_char(date, 'YYYY-MM-DD'), doctor, subjective, objective,
	assessment, plan, severity, created_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.Date, &n.Doctor, &n.Subjective, &n.Objective,
		&n.Assessment, &n.Plan, &n.Severity, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO evolutions (id, patient_id, date, doctor, subjective, objective, assessment, plan, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		n.ID, n.PatientID, n.Date, n.Doctor, n.Subjective, n.Objective, n.Assessment, n.Plan, n.Severity,
	).Scan(&n.CreatedAt)
	return apperr.FromStore(err, "evolution note")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := scanNote(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM evolutions WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "evolution note "+id.String())
	}
	return n, nil
}

func (r *repoPG) Update(ctx context.Context, n *Note) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE evolutions SET
			date=$2, doctor=$3, subjective=$4, objective=$5, assessment=$6, plan=$7, severity=$8
		WHERE id = $1`,
		n.ID, n.Date, n.Doctor, n.Subjective, n.Objective, n.Assessment, n.Plan, n.Severity,
	)
	if err != nil {
		return apperr.FromStore(err, "evolution note")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("evolution note %s not found", n.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM evolutions WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "evolution note")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("evolution note %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM evolutions WHERE patient_id = $1 ORDER BY date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, apperr.FromStore(err, "evolution notes")
	}
	defer rows.Close()

	var items []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "evolution notes")
		}
		items = append(items, n)
	}
	return items, apperr.FromStore(rows.Err(), "evolution notes")
}
