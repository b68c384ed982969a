package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are the routes served without credentials. Only
// infrastructure probes belong here.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper reports whether the matched route bypasses authentication.
// It reads the route pattern, so it must run after routing (echo Use, not Pre).
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether path is served without credentials.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
