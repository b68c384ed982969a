package export

import (
	"strings"

	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/ward"
)

// LabResultsSheet lists a patient's permanent lab results. Numeric values
// are written as numbers so they chart in a spreadsheet.
func LabResultsSheet(results []*lab.Result) Sheet {
	s := Sheet{
		Name:    "Laboratorio",
		Headers: []string{"Fecha", "Prueba", "Categoría", "Tipo", "Valor", "Unidad", "Rango de referencia", "Anormal", "Archivo"},
		Widths:  []float64{12, 28, 16, 14, 16, 12, 22, 10, 40},
	}
	for _, r := range results {
		var value interface{} = r.TextValue
		if r.Value != nil {
			value = *r.Value
		}
		s.Rows = append(s.Rows, []interface{}{
			r.Date, r.TestName, r.Category, r.ResultType, value, r.Unit, r.ReferenceRange, yesNo(r.IsAbnormal), r.FileURL,
		})
	}
	return s
}

// DischargeHistorySheet lists discharge records. Multi-line fields are
// joined with newlines within one cell.
func DischargeHistorySheet(items []*ward.DischargedPatient) Sheet {
	s := Sheet{
		Name:    "Altas",
		Headers: []string{"Fecha de alta", "Cama", "Paciente", "Diagnóstico", "Fecha de ingreso", "Resumen clínico", "Plan"},
		Widths:  []float64{14, 8, 28, 30, 16, 50, 40},
	}
	for _, d := range items {
		admitted := ""
		if d.AdmissionDate != nil {
			admitted = *d.AdmissionDate
		}
		s.Rows = append(s.Rows, []interface{}{
			d.DischargeDate, d.BedID, d.PatientName, d.Condition, admitted,
			strings.Join(d.ClinicalSummary, "\n"), strings.Join(d.Plan, "\n"),
		})
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
