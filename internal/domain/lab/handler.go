package lab

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/assistant"
	"github.com/ehr/ward/internal/platform/auth"
	"github.com/ehr/ward/internal/platform/blobstore"
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
	g.GET("/patients/:id/lab-results", h.ListResults)
	g.POST("/patients/:id/lab-results", h.CreateResult)
	g.GET("/patients/:id/lab-results/chartable", h.ChartableTests)
	g.GET("/patients/:id/lab-results/trend", h.Trend)
	g.GET("/lab-results/:id", h.GetResult)
	g.PUT("/lab-results/:id", h.UpdateResult)
	g.DELETE("/lab-results/:id", h.DeleteResult)
	g.POST("/lab-results/:id/attachment", h.UploadAttachment)
	g.GET("/lab-results/:id/interpretation", h.Interpret)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateResult(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	var in ResultInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	r := Result{PatientID: patientID}
	in.apply(&r)
	if err := h.svc.CreateResult(c.Request().Context(), &r); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListResults(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), patientID, c.QueryParam("type"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Result{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ChartableTests(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	names, err := h.svc.ChartableTests(c.Request().Context(), patientID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, names)
}

func (h *Handler) Trend(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	points, err := h.svc.Trend(c.Request().Context(), patientID, c.QueryParam("test"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetResult(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in ResultInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	r, err := h.svc.UpdateResult(c.Request().Context(), id, &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteResult(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadAttachment takes a multipart "file" field.
func (h *Handler) UploadAttachment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	ctx := c.Request().Context()
	r, err := h.svc.AttachFile(ctx, id, fh.Filename, fh.Header.Get(echo.HeaderContentType), auth.UserIDFromContext(ctx), f)
	if err != nil {
		if apperr.Kind(err) != nil {
			return apperr.HTTPError(err)
		}
		return blobstore.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

// Interpret returns a one-sentence reading of a numeric result. The
// interpretation is empty for qualitative results or when generation fails.
func (h *Handler) Interpret(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	r, err := h.svc.GetResult(ctx, id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	text := ""
	if r.Value != nil {
		text = h.assistant.InterpretLab(ctx, r.TestName, *r.Value, r.Unit)
	}
	return c.JSON(http.StatusOK, map[string]string{"interpretation": text})
}
