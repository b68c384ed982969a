package ward

import (
	"context"

	"github.com/google/uuid"
)

type BedRepository interface {
	List(ctx context.Context) ([]*Bed, error)
	GetByID(ctx context.Context, id int) (*Bed, error)
	// GetForUpdate locks the bed row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int) (*Bed, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Bed, error)
	// Occupy writes an assignment. It fails with Conflict unless the bed is
	// still available and the patient holds no other bed.
	Occupy(ctx context.Context, b *Bed) error
	// Save writes the clinical fields of an occupied bed.
	Save(ctx context.Context, b *Bed) error
	// Release makes the bed available and clears every clinical field.
	Release(ctx context.Context, id int) error
	// EnsurePool creates beds 1..count that do not exist yet.
	EnsurePool(ctx context.Context, count int) (int, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, d *DischargedPatient) error
	GetByID(ctx context.Context, id uuid.UUID) (*DischargedPatient, error)
	// List returns records newest discharge first.
	List(ctx context.Context, limit, offset int) ([]*DischargedPatient, int, error)
}
