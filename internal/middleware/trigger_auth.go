package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"google.golang.org/api/idtoken"
)

// TriggerAuthMiddleware creates an Echo middleware verifying the OIDC
// bearer token the event delivery service attaches to pushes. The
// token's audience must match the configured audience.
func TriggerAuthMiddleware(audience string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			payload, err := idtoken.Validate(c.Request().Context(), tokenParts[1], audience)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid or expired ID token: %v", err))
			}

			c.Set("tokenSubject", payload.Subject)
			return next(c)
		}
	}
}
