package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/domain/lab"
	"github.com/ehr/ward/internal/domain/ward"
	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/auth"
)

// MaxDischargeRows bounds a history export.
const MaxDischargeRows = 10000

type LabLister interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*lab.Result, error)
}

type HistoryLister interface {
	ListDischargeHistory(ctx context.Context, limit, offset int) ([]*ward.DischargedPatient, int, error)
}

type Handler struct {
	labs    LabLister
	history HistoryLister
	now     func() time.Time
}

func NewHandler(labs LabLister, history HistoryLister) *Handler {
	return &Handler{labs: labs, history: history, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleClinician))
	g.GET("/patients/:id/lab-results/export", h.ExportLabResults)
	g.GET("/discharges/export", h.ExportDischargeHistory)
}

func (h *Handler) ExportLabResults(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	results, err := h.labs.ListByPatient(c.Request().Context(), pid, c.QueryParam("type"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	data, err := Workbook(LabResultsSheet(results))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed").SetInternal(err)
	}
	return h.attachment(c, fmt.Sprintf("laboratorio-%s.xlsx", pid.String()[:8]), data)
}

func (h *Handler) ExportDischargeHistory(c echo.Context) error {
	items, _, err := h.history.ListDischargeHistory(c.Request().Context(), MaxDischargeRows, 0)
	if err != nil {
		return apperr.HTTPError(err)
	}
	data, err := Workbook(DischargeHistorySheet(items))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed").SetInternal(err)
	}
	return h.attachment(c, "altas-"+h.now().Format("20060102")+".xlsx", data)
}

func (h *Handler) attachment(c echo.Context, name string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, ContentTypeXLSX, data)
}
