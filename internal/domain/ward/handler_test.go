package ward

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/validate"
)

func newTestHandler(bedCount int) (*Handler, *fixture, *echo.Echo) {
	f := newFixture(bedCount)
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(f.svc), f, e
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_AssignBed(t *testing.T) {
	h, f, e := newTestHandler(2)
	p := f.addPatient("Luis Herrera")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"patient_id":"`+p.ID.String()+`","care_plan":{"oxygen_mode":"MV 35%","microdropper":true}}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.AssignBed(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var b Bed
	json.Unmarshal(rec.Body.Bytes(), &b)
	if b.Status != StatusOccupied || b.CarePlan == nil || b.CarePlan.OxygenMode != "MV 35%" || !b.CarePlan.Microdropper {
		t.Errorf("unexpected bed %+v", b)
	}
}

func TestHandler_AssignBed_Occupied(t *testing.T) {
	h, f, e := newTestHandler(1)
	first := f.addPatient("Uno")
	second := f.addPatient("Dos")
	f.svc.Assign(context.Background(), first.ID, 1, nil)

	c := e.NewContext(jsonRequest(http.MethodPost, `{"patient_id":"`+second.ID.String()+`"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.AssignBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_AssignBed_MissingPatient(t *testing.T) {
	h, _, e := newTestHandler(1)
	c := e.NewContext(jsonRequest(http.MethodPost, `{}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.AssignBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_BadBedID(t *testing.T) {
	h, _, e := newTestHandler(1)
	for _, id := range []string{"abc", "0", "-2"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)
		err := h.GetBed(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %v", id, err)
		}
	}
}

func TestHandler_UpdateBed(t *testing.T) {
	h, f, e := newTestHandler(1)
	p := f.addPatient("Marta Gil")
	f.svc.Assign(context.Background(), p.ID, 1, nil)

	body := `{"plan":["Control de diuresis"],"lab_sections":[{"title":"Control","date":"2026-04-16","metrics":[{"name":"Creatinina","type":"quantitative","value":"1.9 mg/dL","is_abnormal":true}]}]}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, body), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateBed(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res BedUpdate
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.LabsCreated != 1 {
		t.Errorf("expected 1 synced result, got %d", res.LabsCreated)
	}
	if res.Bed == nil || len(res.Bed.Plan) != 1 || res.Bed.Plan[0] != "Control de diuresis" {
		t.Errorf("unexpected bed %+v", res.Bed)
	}
}

func TestHandler_UpdateBed_SyncFailureReturnsSavedBed(t *testing.T) {
	h, f, e := newTestHandler(1)
	p := f.addPatient("Luis Mora")
	f.svc.Assign(context.Background(), p.ID, 1, nil)
	f.labs.failOn = "Amilasa"

	body := `{"condition":"Pancreatitis","lab_sections":[{"date":"2026-04-16","metrics":[{"name":"Lipasa","type":"quantitative","value":"900 U/L"},{"name":"Amilasa","type":"quantitative","value":"400 U/L"}]}]}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, body), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateBed(c); err != nil {
		t.Fatalf("expected a response body, got %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var res BedUpdate
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Bed == nil || *res.Bed.Condition != "Pancreatitis" {
		t.Errorf("expected the saved bed in the body, got %+v", res.Bed)
	}
	if res.LabsCreated != 1 || res.SyncError == "" {
		t.Errorf("expected partial sync reported, got %d %q", res.LabsCreated, res.SyncError)
	}
}

func TestHandler_UpdateBed_Available(t *testing.T) {
	h, _, e := newTestHandler(1)
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"condition":"Estable"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.UpdateBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestHandler_DischargeBed(t *testing.T) {
	h, f, e := newTestHandler(1)
	p := f.addPatient("Andrés Vega")
	f.svc.Assign(context.Background(), p.ID, 1, nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.DischargeBed(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	// Listing the history returns the record in a paginated envelope.
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/discharges?limit=5", nil), rec)
	if err := h.ListDischarges(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		Data  []DischargedPatient `json:"data"`
		Total int                 `json:"total"`
		Limit int                 `json:"limit"`
	}
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Total != 1 || page.Limit != 5 || page.Data[0].PatientName != "Andrés Vega" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestHandler_GetPatientBed_NotAdmitted(t *testing.T) {
	h, f, e := newTestHandler(1)
	p := f.addPatient("Nadia")

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.GetPatientBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListBeds(t *testing.T) {
	h, _, e := newTestHandler(3)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := h.ListBeds(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var beds []Bed
	json.Unmarshal(rec.Body.Bytes(), &beds)
	if len(beds) != 3 || beds[0].ID != 1 || beds[2].Status != StatusAvailable {
		t.Errorf("unexpected beds %+v", beds)
	}
}
