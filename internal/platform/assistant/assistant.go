// Package assistant produces free-text clinical hints from a text-generation
// model. It never fails: every error collapses into a fixed fallback string.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	SummaryUnavailable        = "Error al conectar con el asistente inteligente. Verifique su conexión o clave API."
	SummaryEmpty              = "No se pudo generar el resumen."
	RecommendationDefault     = "Se recomienda monitoreo general de signos vitales."
	RecommendationUnavailable = "Requiere evaluación médica estándar."
	noneLabel                 = "Ninguna"
)

// NoteDigest is the slice of an evolution note the summary needs.
type NoteDigest struct {
	Date       string
	Assessment string
	Plan       string
}

// PatientProfile is the slice of a patient the safety note needs.
type PatientProfile struct {
	Name              string
	Gender            string
	DOB               string
	Allergies         []string
	ChronicConditions []string
}

type Assistant struct {
	gen    Generator
	logger zerolog.Logger
}

// New returns an Assistant. A nil generator yields fallbacks only.
func New(gen Generator, logger zerolog.Logger) *Assistant {
	return &Assistant{gen: gen, logger: logger.With().Str("component", "assistant").Logger()}
}

func (a *Assistant) generate(ctx context.Context, kind, prompt string) (string, error) {
	if a.gen == nil {
		return "", errors.New("assistant not configured")
	}
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil && !errors.Is(err, errEmptyCandidate) {
		a.logger.Warn().Err(err).Str("kind", kind).Msg("text generation failed")
	}
	return text, err
}

// SummarizeEvolutions writes a short progress summary of the notes.
func (a *Assistant) SummarizeEvolutions(ctx context.Context, notes []NoteDigest) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("Fecha: %s, Diagnóstico: %s, Plan: %s", n.Date, n.Assessment, n.Plan))
	}
	prompt := "Actúa como un asistente médico profesional. Analiza las siguientes notas de evolución clínica y genera un resumen conciso (máximo 100 palabras) del progreso del paciente, destacando las tendencias clave y los cambios en el tratamiento. Usa terminología médica adecuada en español.\n\nNotas:\n" +
		strings.Join(lines, "\n---\n")

	text, err := a.generate(ctx, "evolution_summary", prompt)
	switch {
	case errors.Is(err, errEmptyCandidate):
		return SummaryEmpty
	case err != nil:
		return SummaryUnavailable
	}
	return text
}

// InterpretLab returns a one-sentence reading of a numeric result, or "".
func (a *Assistant) InterpretLab(ctx context.Context, testName string, value float64, unit string) string {
	prompt := fmt.Sprintf(
		"El paciente tiene un resultado de laboratorio de %q con valor %s %s. Proporciona una interpretación breve de una sola frase sobre si esto es generalmente alto, bajo o normal, y una recomendación general muy breve. No des consejo médico definitivo, solo orientación informativa.",
		testName, strconv.FormatFloat(value, 'f', -1, 64), unit)

	text, err := a.generate(ctx, "lab_interpretation", prompt)
	if err != nil {
		return ""
	}
	return text
}

// ClinicalRecommendations writes a short safety note from allergies and
// chronic conditions.
func (a *Assistant) ClinicalRecommendations(ctx context.Context, p PatientProfile) string {
	profile := fmt.Sprintf("Paciente: %s (%s, nacido en %s).\nAlergias: %s.\nCondiciones Crónicas: %s.",
		p.Name, p.Gender, p.DOB, joinOrNone(p.Allergies), joinOrNone(p.ChronicConditions))
	prompt := "Actúa como un sistema de alerta médica clínica. Basado en el perfil del paciente:\n" + profile +
		"\nGenera una \"Nota Importante\" breve (máximo 2 frases) con recomendaciones de seguridad críticas o recordatorios de monitoreo específicos para sus condiciones y alergias. Sé directo y profesional. No saludes."

	text, err := a.generate(ctx, "recommendations", prompt)
	switch {
	case errors.Is(err, errEmptyCandidate):
		return RecommendationDefault
	case err != nil:
		return RecommendationUnavailable
	}
	return text
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return noneLabel
	}
	return strings.Join(items, ", ")
}
