package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc), e
}

func TestHandler_CreateAppointment(t *testing.T) {
	h, e := newTestHandler()

	body := `{"date":"2026-06-01","time":"08:15","doctor":"Dr. Soto","reason":"Curación"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Status != StatusScheduled || a.Location != DefaultLocation {
		t.Errorf("unexpected defaults %+v", a)
	}
}

func TestHandler_CreateAppointment_MissingReason(t *testing.T) {
	h, e := newTestHandler()

	body := `{"date":"2026-06-01","time":"08:15","doctor":"Dr. Soto"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.CreateAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetAgenda(t *testing.T) {
	h, e := newTestHandler()
	pid := uuid.New()
	h.svc.CreateAppointment(context.Background(), &Appointment{PatientID: pid, Date: "2026-06-01", Time: "08:15", Doctor: "Dr. Soto", Reason: "Control"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())

	if err := h.GetAgenda(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ag Agenda
	json.Unmarshal(rec.Body.Bytes(), &ag)
	if len(ag.Upcoming) != 1 || len(ag.Past) != 0 || ag.Next == nil {
		t.Errorf("unexpected agenda %+v", ag)
	}
}
