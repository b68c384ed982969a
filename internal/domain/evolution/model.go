package evolution

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityLow    = "Baja"
	SeverityMedium = "Media"
	SeverityHigh   = "Alta"
)

var validSeverities = map[string]bool{
	SeverityLow:    true,
	SeverityMedium: true,
	SeverityHigh:   true,
}

// Note is a SOAP progress note. Editable is computed on read from CreatedAt.
type Note struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Date       string    `db:"date" json:"date"`
	Doctor     string    `db:"doctor" json:"doctor"`
	Subjective string    `db:"subjective" json:"subjective"`
	Objective  string    `db:"objective" json:"objective"`
	Assessment string    `db:"assessment" json:"assessment"`
	Plan       string    `db:"plan" json:"plan"`
	Severity   string    `db:"severity" json:"severity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Editable   bool      `db:"-" json:"editable"`
}

type NoteInput struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Doctor     string `json:"doctor"`
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
	Severity   string `json:"severity" validate:"omitempty,oneof=Baja Media Alta"`
}

func (in *NoteInput) apply(n *Note) {
	n.Date = in.Date
	n.Doctor = in.Doctor
	n.Subjective = in.Subjective
	n.Objective = in.Objective
	n.Assessment = in.Assessment
	n.Plan = in.Plan
	n.Severity = in.Severity
}
