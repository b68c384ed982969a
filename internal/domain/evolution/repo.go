package evolution

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient returns every note of the patient, newest date first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error)
}
