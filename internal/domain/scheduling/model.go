package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "Programada"
	StatusCompleted = "Completada"
	StatusCancelled = "Cancelada"

	DefaultLocation = "Consultorio Principal"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Appointment is a scheduled visit. Time is HH:MM wall-clock time in the
// ward's location.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Doctor    string    `db:"doctor" json:"doctor"`
	Reason    string    `db:"reason" json:"reason"`
	Status    string    `db:"status" json:"status"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Editable  bool      `db:"-" json:"editable"`
}

type AppointmentInput struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Doctor   string `json:"doctor" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=Programada Completada Cancelada"`
	Location string `json:"location"`
}

func (in *AppointmentInput) apply(a *Appointment) {
	a.Date = in.Date
	a.Time = in.Time
	a.Doctor = in.Doctor
	a.Reason = in.Reason
	a.Status = in.Status
	a.Location = in.Location
}

// Agenda is a patient's appointments split around a point in time.
type Agenda struct {
	Upcoming []*Appointment `json:"upcoming"`
	Past     []*Appointment `json:"past"`
	Next     *Appointment   `json:"next"`
}
