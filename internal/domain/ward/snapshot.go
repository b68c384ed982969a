package ward

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
)

const (
	defaultCondition   = "Ingreso General"
	defaultPlan        = "Realizar valoración inicial completa"
	admissionLabsTitle = "Ingreso (Últimos Labs)"
	noDate             = "Sin fecha"
	noData             = "Sin datos"
	noResult           = "Sin resultado"
)

// Snapshot is the clinical picture copied onto a bed at admission.
type Snapshot struct {
	Condition       string
	ClinicalSummary []string
	Plan            []string
	LabSections     []LabSection
}

// BuildAdmissionSnapshot derives a bed's initial clinical fields from the
// patient's record. It does not modify its inputs.
func BuildAdmissionSnapshot(p *patient.Patient, notes []*evolution.Note, labs []*lab.Result, now time.Time) Snapshot {
	var latest *evolution.Note
	if len(notes) > 0 {
		sorted := append([]*evolution.Note(nil), notes...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Date != sorted[j].Date {
				return sorted[i].Date > sorted[j].Date
			}
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
		latest = sorted[0]
	}

	snap := Snapshot{
		Condition:       admissionCondition(p, latest),
		ClinicalSummary: admissionSummary(p, latest, now),
		Plan:            []string{defaultPlan},
		LabSections:     admissionLabs(labs),
	}
	if latest != nil && latest.Plan != "" {
		snap.Plan = []string{latest.Plan}
	}
	return snap
}

func admissionCondition(p *patient.Patient, latest *evolution.Note) string {
	if latest != nil && latest.Assessment != "" {
		return latest.Assessment
	}
	if len(p.ChronicConditions) > 0 && p.ChronicConditions[0] != "" {
		return p.ChronicConditions[0]
	}
	return defaultCondition
}

func admissionSummary(p *patient.Patient, latest *evolution.Note, now time.Time) []string {
	age := "Edad: desconocida"
	if dob, err := time.Parse(time.DateOnly, p.DOB); err == nil {
		age = fmt.Sprintf("Edad: %d años", now.Year()-dob.Year())
	}

	date, subjective := noDate, noData
	if latest != nil {
		if latest.Date != "" {
			date = latest.Date
		}
		if latest.Subjective != "" {
			subjective = latest.Subjective
		}
	}
	return []string{
		"Paciente: " + p.Name,
		age,
		fmt.Sprintf("Última evolución (%s): %s", date, subjective),
	}
}

// admissionLabs returns one section holding every result of the newest lab
// date, or an empty list when the patient has no results.
func admissionLabs(labs []*lab.Result) []LabSection {
	if len(labs) == 0 {
		return []LabSection{}
	}
	sorted := append([]*lab.Result(nil), labs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	newest := sorted[0].Date
	section := LabSection{Title: admissionLabsTitle, Date: newest, Metrics: []LabMetric{}}
	for _, r := range sorted {
		if r.Date != newest {
			break
		}
		section.Metrics = append(section.Metrics, metricFromResult(r))
	}
	return []LabSection{section}
}

func metricFromResult(r *lab.Result) LabMetric {
	m := LabMetric{
		Name:       r.TestName,
		Type:       r.ResultType,
		IsAbnormal: r.IsAbnormal,
		Reference:  r.ReferenceRange,
		Category:   r.Category,
	}
	switch {
	case r.Value != nil:
		m.Value = strings.TrimSpace(strconv.FormatFloat(*r.Value, 'f', -1, 64) + " " + r.Unit)
	case r.TextValue != "":
		m.Value = r.TextValue
	default:
		m.Value = noResult
	}
	if m.Type == "" {
		m.Type = lab.TypeQuantitative
	}
	if m.Category == "" {
		m.Category = lab.CategoryGeneral
	}
	return m
}
