package ward

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/domain/lab"
)

// SyncBedLabs copies every bed lab metric whose date and test name are not
// yet in the patient's permanent record and returns how many results it
// created. Inserts are independent: on error the results created so far
// are kept and the count reflects them.
func (s *Service) SyncBedLabs(ctx context.Context, patientID uuid.UUID, sections []LabSection) (int, error) {
	existing, err := s.labs.ListByPatient(ctx, patientID, "")
	if err != nil {
		return 0, err
	}
	keys := make(map[string]bool, len(existing))
	for _, r := range existing {
		keys[r.Key()] = true
	}

	created := 0
	for _, sec := range sections {
		for _, m := range sec.Metrics {
			key := lab.Key(sec.Date, m.Name)
			if keys[key] {
				continue
			}
			r := resultFromMetric(patientID, sec, m)
			if err := s.labs.ImportResult(ctx, r); err != nil {
				return created, fmt.Errorf("sync %q of %s: %w", m.Name, sec.Date, err)
			}
			keys[key] = true
			created++
		}
	}
	return created, nil
}

func resultFromMetric(patientID uuid.UUID, sec LabSection, m LabMetric) *lab.Result {
	r := &lab.Result{
		PatientID:      patientID,
		Date:           sec.Date,
		TestName:       m.Name,
		ResultType:     lab.TypeQualitative,
		TextValue:      m.Value,
		ReferenceRange: m.Reference,
		IsAbnormal:     m.IsAbnormal,
		Category:       firstNonEmpty(m.Category, sec.Title, lab.CategoryGeneral),
	}
	if m.Type == lab.TypeQuantitative {
		if v, unit, ok := parseQuantity(m.Value); ok {
			r.ResultType = lab.TypeQuantitative
			r.Value = &v
			r.Unit = unit
			r.TextValue = ""
		}
	}
	return r
}

// parseQuantity splits "95 mg/dL" into 95 and "mg/dL". The number must be
// the whole first token.
func parseQuantity(s string) (float64, string, bool) {
	num, unit, _ := strings.Cut(strings.TrimSpace(s), " ")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", false
	}
	return v, strings.TrimSpace(unit), true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
