package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestSummarizeEvolutions(t *testing.T) {
	gen := &stubGenerator{text: "Paciente estable."}
	a := New(gen, zerolog.Nop())

	got := a.SummarizeEvolutions(context.Background(), []NoteDigest{
		{Date: "2026-03-01", Assessment: "Neumonía", Plan: "Ceftriaxona"},
		{Date: "2026-03-02", Assessment: "Mejoría", Plan: "Continuar"},
	})

	assert.Equal(t, "Paciente estable.", got)
	assert.Contains(t, gen.prompt, "Fecha: 2026-03-01, Diagnóstico: Neumonía, Plan: Ceftriaxona\n---\nFecha: 2026-03-02")
}

func TestSummarizeEvolutions_Fallbacks(t *testing.T) {
	a := New(&stubGenerator{err: errors.New("dial tcp: refused")}, zerolog.Nop())
	assert.Equal(t, SummaryUnavailable, a.SummarizeEvolutions(context.Background(), nil))

	a = New(&stubGenerator{err: errEmptyCandidate}, zerolog.Nop())
	assert.Equal(t, SummaryEmpty, a.SummarizeEvolutions(context.Background(), nil))

	a = New(nil, zerolog.Nop())
	assert.Equal(t, SummaryUnavailable, a.SummarizeEvolutions(context.Background(), nil))
}

func TestInterpretLab(t *testing.T) {
	gen := &stubGenerator{text: "Valor normal."}
	a := New(gen, zerolog.Nop())

	assert.Equal(t, "Valor normal.", a.InterpretLab(context.Background(), "Glucosa", 95, "mg/dL"))
	assert.Contains(t, gen.prompt, `"Glucosa" con valor 95 mg/dL`)

	a = New(&stubGenerator{err: errors.New("boom")}, zerolog.Nop())
	assert.Equal(t, "", a.InterpretLab(context.Background(), "Glucosa", 95, "mg/dL"))
}

func TestClinicalRecommendations(t *testing.T) {
	gen := &stubGenerator{text: "Evitar penicilinas."}
	a := New(gen, zerolog.Nop())

	got := a.ClinicalRecommendations(context.Background(), PatientProfile{
		Name: "Juan Pérez", Gender: "Masculino", DOB: "1960-04-02",
		Allergies: []string{"Penicilina"},
	})
	assert.Equal(t, "Evitar penicilinas.", got)
	assert.Contains(t, gen.prompt, "Alergias: Penicilina.")
	assert.Contains(t, gen.prompt, "Condiciones Crónicas: Ninguna.")

	a = New(&stubGenerator{err: errEmptyCandidate}, zerolog.Nop())
	assert.Equal(t, RecommendationDefault, a.ClinicalRecommendations(context.Background(), PatientProfile{}))

	a = New(&stubGenerator{err: errors.New("timeout")}, zerolog.Nop())
	assert.Equal(t, RecommendationUnavailable, a.ClinicalRecommendations(context.Background(), PatientProfile{}))
}

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hola", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Resumen "},{"text":"final"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiClient(srv.URL, "secret", "gemini-test", 5*time.Second)
	text, err := g.Generate(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "Resumen final", text)
}

func TestGeminiClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	g := NewGeminiClient(srv.URL, "bad", "gemini-test", 5*time.Second)
	_, err := g.Generate(context.Background(), "hola")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "API key not valid"))
}

func TestGeminiClient_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGeminiClient(srv.URL, "k", "gemini-test", 5*time.Second)
	_, err := g.Generate(context.Background(), "hola")
	assert.ErrorIs(t, err, errEmptyCandidate)
}
