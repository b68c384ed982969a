package lab

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeQuantitative = "quantitative"
	TypeQualitative  = "qualitative"
)

// Categories used by the ward. Anything else is accepted as free text.
const (
	CategoryHematology   = "Hematología"
	CategoryBiochemistry = "Bioquímica"
	CategoryImmunology   = "Inmunología"
	CategoryMicrobiology = "Microbiología"
	CategoryPathology    = "Patología"
	CategoryGeneral      = "General"
)

var validTypes = map[string]bool{
	TypeQuantitative: true,
	TypeQualitative:  true,
}

// Result is a permanent lab result. Value is set for quantitative results,
// TextValue for qualitative ones.
type Result struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	Date           string    `db:"date" json:"date"`
	TestName       string    `db:"test_name" json:"test_name"`
	ResultType     string    `db:"result_type" json:"result_type"`
	Value          *float64  `db:"value" json:"value,omitempty"`
	TextValue      string    `db:"text_value" json:"text_value,omitempty"`
	Unit           string    `db:"unit" json:"unit,omitempty"`
	ReferenceRange string    `db:"reference_range" json:"reference_range"`
	IsAbnormal     bool      `db:"is_abnormal" json:"is_abnormal"`
	Category       string    `db:"category" json:"category"`
	FileName       string    `db:"file_name" json:"file_name,omitempty"`
	FileURL        string    `db:"file_url" json:"file_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Key identifies a result for bed synchronization: the date plus the
// trimmed, lower-cased test name.
func Key(date, testName string) string {
	return date + "|" + strings.ToLower(strings.TrimSpace(testName))
}

func (r *Result) Key() string { return Key(r.Date, r.TestName) }

type ResultInput struct {
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	TestName       string   `json:"test_name" validate:"required"`
	ResultType     string   `json:"result_type" validate:"omitempty,oneof=quantitative qualitative"`
	Value          *float64 `json:"value"`
	TextValue      string   `json:"text_value"`
	Unit           string   `json:"unit"`
	ReferenceRange string   `json:"reference_range"`
	IsAbnormal     bool     `json:"is_abnormal"`
	Category       string   `json:"category"`
}

func (in *ResultInput) apply(r *Result) {
	r.Date = in.Date
	r.TestName = in.TestName
	r.ResultType = in.ResultType
	r.Value = in.Value
	r.TextValue = in.TextValue
	r.Unit = in.Unit
	r.ReferenceRange = in.ReferenceRange
	r.IsAbnormal = in.IsAbnormal
	r.Category = in.Category
}

// TrendPoint is one numeric reading of a test over time.
type TrendPoint struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	IsAbnormal bool    `json:"is_abnormal"`
}
