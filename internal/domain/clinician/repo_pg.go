package clinician

import (
	"context"

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

func (r *repoPG) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, full_name, specialty, license_number, phone, role, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&p.ID, &p.Email, &p.FullName, &p.Specialty, &p.LicenseNumber, &p.Phone, &p.Role, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromStore(err, "profile "+id)
	}
	return &p, nil
}

// Upsert writes the editable fields. The role column is owned by the
// identity provider sync and is not changed on conflict.
func (r *repoPG) Upsert(ctx context.Context, p *Profile) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, specialty, license_number, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			specialty = EXCLUDED.specialty,
			license_number = EXCLUDED.license_number,
			phone = EXCLUDED.phone,
			updated_at = NOW()
		RETURNING role, updated_at`,
		p.ID, p.Email, p.FullName, p.Specialty, p.LicenseNumber, p.Phone, p.Role,
	).Scan(&p.Role, &p.UpdatedAt)
	return apperr.FromStore(err, "profile")
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, "profile")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("profile %s not found", id)
	}
	return nil
}
