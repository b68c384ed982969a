package evolution

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/assistant"
	"github.com/ehr/ward/internal/platform/auth"
)

type Handler struct {
	svc       *Service
	assistant *assistant.Assistant
}

func NewHandler(svc *Service, asst *assistant.Assistant) *Handler {
	return &Handler{svc: svc, assistant: asst}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleClinician))
	g.GET("/patients/:id/evolutions", h.ListNotes)
	g.POST("/patients/:id/evolutions", h.CreateNote)
	g.GET("/patients/:id/evolutions/summary", h.Summarize)
	g.GET("/evolutions/:id", h.GetNote)
	g.PUT("/evolutions/:id", h.UpdateNote)
	g.DELETE("/evolutions/:id", h.DeleteNote)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateNote(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	var in NoteInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	n := Note{PatientID: patientID}
	in.apply(&n)
	if n.Doctor == "" {
		n.Doctor = auth.UserNameFromContext(c.Request().Context())
	}
	if err := h.svc.CreateNote(c.Request().Context(), &n); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Note{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.GetNote(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in NoteInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	n, err := h.svc.UpdateNote(c.Request().Context(), id, &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteNote(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Summarize asks the assistant for a progress summary of the patient's notes.
func (h *Handler) Summarize(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.svc.ListByPatient(ctx, patientID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if len(items) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"summary": assistant.SummaryEmpty})
	}
	digests := make([]assistant.NoteDigest, 0, len(items))
	for _, n := range items {
		digests = append(digests, assistant.NoteDigest{Date: n.Date, Assessment: n.Assessment, Plan: n.Plan})
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": h.assistant.SummarizeEvolutions(ctx, digests)})
}
