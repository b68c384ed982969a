package clinician

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes exposes the caller's own profile only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleClinician))
	g.GET("/me/profile", h.GetProfile)
	g.PUT("/me/profile", h.SaveProfile)
	g.DELETE("/me/profile", h.DeleteProfile)
}

func callerID(c echo.Context) (string, error) {
	id := auth.UserIDFromContext(c.Request().Context())
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "no authenticated user")
	}
	return id, nil
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SaveProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return apperr.HTTPError(err)
	}
	p := Profile{ID: id}
	in.apply(&p)
	if err := h.svc.SaveProfile(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteProfile(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
