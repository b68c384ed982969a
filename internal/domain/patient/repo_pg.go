package patient

import (
	"context"
	"fmt"
	"strings"

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

const patientCols = `p.id, p.name, to_char(p.dob, 'YYYY-MM-DD'), p.gender, p.blood_type,
	p.allergies, p.chronic_conditions, p.contact, b.id, p.created_at, p.updated_at`

const patientFrom = `patients p LEFT JOIN beds b ON b.patient_id = p.id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.DOB, &p.Gender, &p.BloodType,
		&p.Allergies, &p.ChronicConditions, &p.Contact, &p.BedID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, dob, gender, blood_type, allergies, chronic_conditions, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.DOB, p.Gender, p.BloodType, nonNil(p.Allergies), nonNil(p.ChronicConditions), p.Contact,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return apperr.FromStore(err, "patient")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM `+patientFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "patient "+id.String())
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			name=$2, dob=$3, gender=$4, blood_type=$5, allergies=$6, chronic_conditions=$7,
			contact=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.DOB, p.Gender, p.BloodType, nonNil(p.Allergies), nonNil(p.ChronicConditions), p.Contact,
	)
	if err != nil {
		return apperr.FromStore(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient %s not found", p.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		where = ` WHERE p.name ILIKE $1`
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients p`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromStore(err, "patients")
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY p.name, p.id LIMIT $%d OFFSET $%d`, patientCols, patientFrom, where, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, apperr.FromStore(err, "patients")
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, apperr.FromStore(err, "patients")
		}
		items = append(items, p)
	}
	return items, total, apperr.FromStore(rows.Err(), "patients")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
