package ward

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/domain/evolution"
	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/patient"
)

func fnum(v float64) *float64 { return &v }

func TestBuildAdmissionSnapshot_FromRecord(t *testing.T) {
	p := &patient.Patient{Name: "Carlos Díaz", DOB: "1956-11-30", ChronicConditions: []string{"EPOC"}}
	created := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	notes := []*evolution.Note{
		{Date: "2026-04-10", Subjective: "Tos productiva", Assessment: "Neumonía basal", Plan: "Ceftriaxona 1g c/24h", CreatedAt: created},
		{Date: "2026-04-12", Subjective: "Mejoría clínica", Assessment: "Neumonía en resolución", Plan: "Continuar antibiótico", CreatedAt: created},
		{Date: "2026-04-02", Assessment: "Control", CreatedAt: created},
	}
	labs := []*lab.Result{
		{Date: "2026-04-11", TestName: "Hemoglobina", ResultType: lab.TypeQuantitative, Value: fnum(13.2), Unit: "g/dL", ReferenceRange: "12-16", Category: lab.CategoryHematology},
		{Date: "2026-04-12", TestName: "Glucosa", ResultType: lab.TypeQuantitative, Value: fnum(95), Unit: "mg/dL", ReferenceRange: "70-110", Category: lab.CategoryBiochemistry},
		{Date: "2026-04-12", TestName: "Hemocultivo", ResultType: lab.TypeQualitative, TextValue: "Negativo", Category: lab.CategoryMicrobiology},
		{Date: "2026-04-12", TestName: "Lactato", Value: fnum(0)},
		{Date: "2026-04-12", TestName: "PCR", ResultType: lab.TypeQuantitative, IsAbnormal: true},
	}

	snap := BuildAdmissionSnapshot(p, notes, labs, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))

	if snap.Condition != "Neumonía en resolución" {
		t.Errorf("unexpected condition %q", snap.Condition)
	}
	wantSummary := []string{
		"Paciente: Carlos Díaz",
		"Edad: 70 años",
		"Última evolución (2026-04-12): Mejoría clínica",
	}
	if !reflect.DeepEqual(snap.ClinicalSummary, wantSummary) {
		t.Errorf("unexpected summary %q", snap.ClinicalSummary)
	}
	if !reflect.DeepEqual(snap.Plan, []string{"Continuar antibiótico"}) {
		t.Errorf("unexpected plan %q", snap.Plan)
	}

	if len(snap.LabSections) != 1 {
		t.Fatalf("expected one lab section, got %d", len(snap.LabSections))
	}
	sec := snap.LabSections[0]
	if sec.Title != "Ingreso (Últimos Labs)" || sec.Date != "2026-04-12" {
		t.Errorf("unexpected section header %q %q", sec.Title, sec.Date)
	}
	want := []LabMetric{
		{Name: "Glucosa", Type: lab.TypeQuantitative, Value: "95 mg/dL", Reference: "70-110", Category: lab.CategoryBiochemistry},
		{Name: "Hemocultivo", Type: lab.TypeQualitative, Value: "Negativo", Category: lab.CategoryMicrobiology},
		{Name: "Lactato", Type: lab.TypeQuantitative, Value: "0", Category: lab.CategoryGeneral},
		{Name: "PCR", Type: lab.TypeQuantitative, Value: "Sin resultado", IsAbnormal: true, Category: lab.CategoryGeneral},
	}
	if !reflect.DeepEqual(sec.Metrics, want) {
		t.Errorf("unexpected metrics\n got %+v\nwant %+v", sec.Metrics, want)
	}

	if notes[0].Date != "2026-04-10" || labs[0].TestName != "Hemoglobina" {
		t.Error("inputs must not be reordered")
	}
}

func TestBuildAdmissionSnapshot_EmptyRecord(t *testing.T) {
	now := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		patient       *patient.Patient
		wantCondition string
		wantAge       string
	}{
		{
			name:          "first chronic condition",
			patient:       &patient.Patient{ID: uuid.New(), Name: "Ana", DOB: "1990-01-01", ChronicConditions: []string{"Asma", "Obesidad"}},
			wantCondition: "Asma",
			wantAge:       "Edad: 36 años",
		},
		{
			name:          "general admission",
			patient:       &patient.Patient{ID: uuid.New(), Name: "Ana", DOB: "2026-01-01"},
			wantCondition: "Ingreso General",
			wantAge:       "Edad: 0 años",
		},
		{
			name:          "unreadable dob",
			patient:       &patient.Patient{ID: uuid.New(), Name: "Ana", DOB: "n/d"},
			wantCondition: "Ingreso General",
			wantAge:       "Edad: desconocida",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := BuildAdmissionSnapshot(tt.patient, nil, nil, now)
			if snap.Condition != tt.wantCondition {
				t.Errorf("expected condition %q, got %q", tt.wantCondition, snap.Condition)
			}
			if snap.ClinicalSummary[1] != tt.wantAge {
				t.Errorf("expected %q, got %q", tt.wantAge, snap.ClinicalSummary[1])
			}
			if snap.ClinicalSummary[2] != "Última evolución (Sin fecha): Sin datos" {
				t.Errorf("unexpected evolution line %q", snap.ClinicalSummary[2])
			}
			if !reflect.DeepEqual(snap.Plan, []string{"Realizar valoración inicial completa"}) {
				t.Errorf("unexpected plan %q", snap.Plan)
			}
			if snap.LabSections == nil || len(snap.LabSections) != 0 {
				t.Errorf("expected empty lab sections, got %v", snap.LabSections)
			}
		})
	}
}

func TestBuildAdmissionSnapshot_BlankEvolutionFallsThrough(t *testing.T) {
	p := &patient.Patient{Name: "Luis", DOB: "1980-02-02", ChronicConditions: []string{"Diabetes"}}
	notes := []*evolution.Note{{Date: "2026-04-01"}}

	snap := BuildAdmissionSnapshot(p, notes, nil, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	if snap.Condition != "Diabetes" {
		t.Errorf("expected chronic condition fallback, got %q", snap.Condition)
	}
	if snap.ClinicalSummary[2] != "Última evolución (2026-04-01): Sin datos" {
		t.Errorf("unexpected evolution line %q", snap.ClinicalSummary[2])
	}
	if snap.Plan[0] != "Realizar valoración inicial completa" {
		t.Errorf("unexpected plan %q", snap.Plan)
	}
}
