package prescription

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/domain/ward"
)

const (
	DefaultDiet     = "DIETA HIPOSÓDICA E HIPOGLÚCIDA"
	DefaultDoctor   = "Dr. Admin"
	DefaultRoute    = "VO"
	DefaultForm     = "TAB"
	DefaultQuantity = "1"
)

// MedicationItem is one line of the printed prescription.
type MedicationItem struct {
	Name          string `json:"name" validate:"required"`
	Dosage        string `json:"dosage"`
	Frequency     string `json:"frequency"`
	Route         string `json:"route"`
	Form          string `json:"form"`
	TotalQuantity string `json:"total_quantity"`
}

// Prescription is immutable once written. The allergies and care plan are
// copies taken at creation and do not follow later edits to the patient or
// the bed.
type Prescription struct {
	ID                uuid.UUID        `json:"id"`
	PatientID         uuid.UUID        `json:"patient_id"`
	DoctorName        string           `json:"doctor_name"`
	DoctorLicense     string           `json:"doctor_license"`
	Date              string           `json:"date"`
	Diagnosis         string           `json:"diagnosis"`
	Weight            string           `json:"weight"`
	Height            string           `json:"height"`
	Temperature       string           `json:"temperature"`
	Diet              string           `json:"diet"`
	AllergiesSnapshot []string         `json:"allergies_snapshot"`
	CarePlan          ward.CarePlan    `json:"care_plan"`
	Medications       []MedicationItem `json:"medications"`
	CreatedAt         time.Time        `json:"created_at"`
}

type PrescriptionInput struct {
	Date        string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Diagnosis   string           `json:"diagnosis" validate:"required"`
	Weight      string           `json:"weight"`
	Height      string           `json:"height"`
	Temperature string           `json:"temperature"`
	Diet        string           `json:"diet"`
	Medications []MedicationItem `json:"medications" validate:"dive"`
}

func (in *PrescriptionInput) apply(p *Prescription) {
	p.Date = in.Date
	p.Diagnosis = strings.TrimSpace(in.Diagnosis)
	p.Weight = in.Weight
	p.Height = in.Height
	p.Temperature = in.Temperature
	p.Diet = strings.TrimSpace(in.Diet)
	p.Medications = in.Medications
}

func (m *MedicationItem) applyDefaults() {
	if strings.TrimSpace(m.Route) == "" {
		m.Route = DefaultRoute
	}
	if strings.TrimSpace(m.Form) == "" {
		m.Form = DefaultForm
	}
	if strings.TrimSpace(m.TotalQuantity) == "" {
		m.TotalQuantity = DefaultQuantity
	}
}
