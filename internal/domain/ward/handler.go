package ward

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/auth"
	"github.com/ehr/ward/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleClinician))
	g.GET("/beds", h.ListBeds)
	g.GET("/beds/:id", h.GetBed)
	g.POST("/beds/:id/assign", h.AssignBed)
	g.PATCH("/beds/:id", h.UpdateBed)
	g.POST("/beds/:id/discharge", h.DischargeBed)
	g.GET("/patients/:id/bed", h.GetPatientBed)
	g.GET("/discharges", h.ListDischarges)
	g.GET("/discharges/:id", h.GetDischarge)
}

func bedID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid bed id")
	}
	return id, nil
}

func (h *Handler) ListBeds(c echo.Context) error {
	beds, err := h.svc.ListBeds(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := bedID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) AssignBed(c echo.Context) error {
	id, err := bedID(c)
	if err != nil {
		return err
	}
	var in AssignInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	b, err := h.svc.Assign(c.Request().Context(), in.PatientID, id, in.CarePlan)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateBed(c echo.Context) error {
	id, err := bedID(c)
	if err != nil {
		return err
	}
	var patch BedPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&patch); err != nil {
		return apperr.HTTPError(err)
	}
	res, err := h.svc.UpdateBed(c.Request().Context(), id, &patch)
	if err != nil {
		if res == nil {
			return apperr.HTTPError(err)
		}
		// The bed edit is saved; report it with the failed sync.
		c.Logger().Error(err)
		res.SyncError = "lab sync incomplete"
		return c.JSON(apperr.StatusCode(err), res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DischargeBed(c echo.Context) error {
	id, err := bedID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Discharge(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetPatientBed(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.BedForPatient(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if b == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient is not admitted")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListDischarges(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDischargeHistory(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*DischargedPatient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDischarge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDischarge(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}
