package lab

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

const resultCols = `id, patient_id, to_char(date, 'YYYY-MM-DD'), test_name, result_type, value, text_value,
	unit, reference_range, is_abnormal, category, file_name, file_url, created_at`

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.PatientID, &res.Date, &res.TestName, &res.ResultType, &res.Value, &res.TextValue,
		&res.Unit, &res.ReferenceRange, &res.IsAbnormal, &res.Category, &res.FileName, &res.FileURL, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_results (
			id, patient_id, date, test_name, result_type, value, text_value,
			unit, reference_range, is_abnormal, category, file_name, file_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		res.ID, res.PatientID, res.Date, res.TestName, res.ResultType, res.Value, res.TextValue,
		res.Unit, res.ReferenceRange, res.IsAbnormal, res.Category, res.FileName, res.FileURL,
	).Scan(&res.CreatedAt)
	return apperr.FromStore(err, "lab result")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	res, err := scanResult(r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM lab_results WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "lab result "+id.String())
	}
	return res, nil
}

func (r *repoPG) Update(ctx context.Context, res *Result) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_results SET
			date=$2, test_name=$3, result_type=$4, value=$5, text_value=$6, unit=$7,
			reference_range=$8, is_abnormal=$9, category=$10, file_name=$11, file_url=$12
		WHERE id = $1`,
		res.ID, res.Date, res.TestName, res.ResultType, res.Value, res.TextValue, res.Unit,
		res.ReferenceRange, res.IsAbnormal, res.Category, res.FileName, res.FileURL,
	)
	if err != nil {
		return apperr.FromStore(err, "lab result")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lab result %s not found", res.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "lab result")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lab result %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*Result, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+resultCols+` FROM lab_results
		WHERE patient_id = $1 AND ($2 = '' OR result_type = $2)
		ORDER BY date DESC, created_at DESC`, patientID, resultType)
	if err != nil {
		return nil, apperr.FromStore(err, "lab results")
	}
	defer rows.Close()

	var items []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "lab results")
		}
		items = append(items, res)
	}
	return items, apperr.FromStore(rows.Err(), "lab results")
}
