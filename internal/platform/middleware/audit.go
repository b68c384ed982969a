package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/ward/internal/platform/auth"
)

// Audit logs every state-changing API call with the acting clinician and
// the record it touched. Reads are not audited.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return next(c)
			}
			if !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			err := next(c)

			resource, id := resourceFromPath(req.URL.Path)
			rid, _ := c.Get("request_id").(string)
			logger.Info().
				Str("audit", "write").
				Str("request_id", rid).
				Str("user_id", auth.UserIDFromContext(req.Context())).
				Str("action", methodToAction(req.Method)).
				Str("resource", resource).
				Str("resource_id", id).
				Int("status", c.Response().Status).
				Bool("failed", err != nil).
				Msg("clinical record change")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// resourceFromPath returns the first collection segment after /api/v1 and
// the segment following it, e.g. "/api/v1/beds/3/discharge" -> ("beds", "3").
func resourceFromPath(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return "", ""
	}
	parts = parts[2:]
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
