package lab

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	Update(ctx context.Context, r *Result) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient returns results newest date first. An empty resultType
	// matches both types.
	ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*Result, error)
}
