package ward

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
)

// Bed is one bed of the fixed pool. While available every clinical field
// is nil. The bed is the only record that links a patient to a bed.
type Bed struct {
	ID              int          `json:"id"`
	Status          string       `json:"status"`
	PatientID       *uuid.UUID   `json:"patient_id"`
	PatientName     *string      `json:"patient_name"`
	Condition       *string      `json:"condition"`
	AdmissionDate   *string      `json:"admission_date"`
	ClinicalSummary []string     `json:"clinical_summary"`
	Plan            []string     `json:"plan"`
	CarePlan        *CarePlan    `json:"care_plan"`
	LabSections     []LabSection `json:"lab_sections"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (b *Bed) Occupied() bool { return b.Status == StatusOccupied }

// CarePlan holds the nursing orders of an admitted patient. The zero value
// is the empty plan.
type CarePlan struct {
	HGT1400          string `json:"hgt_1400"`
	HGT2200          string `json:"hgt_2200"`
	HGT0600          string `json:"hgt_0600"`
	CatheterType     string `json:"catheter_type"`
	NeedleSize       string `json:"needle_size"`
	NasogastricSonde string `json:"nasogastric_sonde"`
	FoleySonde       string `json:"foley_sonde"`
	OxygenMode       string `json:"oxygen_mode"`
	Venoclysis       bool   `json:"venoclysis"`
	Microdropper     bool   `json:"microdropper"`
	TripleWayCode    bool   `json:"triple_way_code"`
}

// LabSection groups bed lab metrics taken on one date.
type LabSection struct {
	Title   string      `json:"title"`
	Date    string      `json:"date"`
	Metrics []LabMetric `json:"metrics"`
}

// LabMetric is a display value such as "95 mg/dL" or "Negativo".
type LabMetric struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	IsAbnormal bool   `json:"is_abnormal"`
	Reference  string `json:"reference,omitempty"`
	Category   string `json:"category,omitempty"`
}

// DischargedPatient is the immutable record of one discharge.
type DischargedPatient struct {
	ID              uuid.UUID    `json:"id"`
	BedID           int          `json:"bed_id"`
	PatientID       *uuid.UUID   `json:"patient_id"`
	PatientName     string       `json:"patient_name"`
	Condition       string       `json:"condition"`
	AdmissionDate   *string      `json:"admission_date"`
	ClinicalSummary []string     `json:"clinical_summary"`
	Plan            []string     `json:"plan"`
	LabSections     []LabSection `json:"lab_sections"`
	DischargeDate   string       `json:"discharge_date"`
	CreatedAt       time.Time    `json:"created_at"`
}

type AssignInput struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	CarePlan  *CarePlan `json:"care_plan"`
}

// BedPatch is a partial edit of an occupied bed. Nil fields are left
// unchanged; an empty list clears the field.
type BedPatch struct {
	Condition       *string      `json:"condition"`
	AdmissionDate   *string      `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	ClinicalSummary []string     `json:"clinical_summary"`
	Plan            []string     `json:"plan"`
	CarePlan        *CarePlan    `json:"care_plan"`
	LabSections     []LabSection `json:"lab_sections"`
}

func (p *BedPatch) Empty() bool {
	return p.Condition == nil && p.AdmissionDate == nil && p.ClinicalSummary == nil &&
		p.Plan == nil && p.CarePlan == nil && p.LabSections == nil
}

func (p *BedPatch) apply(b *Bed) {
	if p.Condition != nil {
		b.Condition = p.Condition
	}
	if p.AdmissionDate != nil {
		b.AdmissionDate = p.AdmissionDate
	}
	if p.ClinicalSummary != nil {
		b.ClinicalSummary = nonBlank(p.ClinicalSummary)
	}
	if p.Plan != nil {
		b.Plan = nonBlank(p.Plan)
	}
	if p.CarePlan != nil {
		cp := *p.CarePlan
		b.CarePlan = &cp
	}
	if p.LabSections != nil {
		b.LabSections = p.LabSections
	}
}

// nonBlank drops empty lines from a free-text list.
func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// BedUpdate is returned by a bed edit together with the number of lab
// results the edit added to the permanent record.
type BedUpdate struct {
	Bed         *Bed   `json:"bed"`
	LabsCreated int    `json:"labs_created"`
	SyncError   string `json:"sync_error,omitempty"`
}
