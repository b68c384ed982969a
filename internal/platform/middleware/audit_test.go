package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/ward/internal/platform/auth"
)

func TestAudit_LogsWrites(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/beds/3/discharge", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "dr-lopez"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	if err := Audit(zerolog.New(&buf))(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"user_id":"dr-lopez"`, `"resource":"beds"`, `"resource_id":"3"`, `"action":"create"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestAudit_SkipsReads(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/beds", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_ = Audit(zerolog.New(&buf))(func(c echo.Context) error { return nil })(c)
	if buf.Len() != 0 {
		t.Errorf("expected no audit entry for GET, got %s", buf.String())
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_ = Audit(zerolog.New(&buf))(func(c echo.Context) error { return nil })(c)
	if buf.Len() != 0 {
		t.Errorf("expected no audit entry, got %s", buf.String())
	}
}

func TestResourceFromPath(t *testing.T) {
	tests := []struct {
		path         string
		resource, id string
	}{
		{"/api/v1/patients", "patients", ""},
		{"/api/v1/patients/abc/evolutions", "patients", "abc"},
		{"/api/v1/beds/3", "beds", "3"},
		{"/health", "", ""},
	}
	for _, tt := range tests {
		r, id := resourceFromPath(tt.path)
		if r != tt.resource || id != tt.id {
			t.Errorf("resourceFromPath(%q) = (%q,%q), want (%q,%q)", tt.path, r, id, tt.resource, tt.id)
		}
	}
}

func TestMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}
