package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kscst/training-portal/internal/api/metrics"
	"github.com/kscst/training-portal/internal/core/domain"
	"github.com/kscst/training-portal/internal/core/guard"
)

// Guard admits sessions whose role is in allowed. Everyone else is sent with
// 303 See Other to their own dashboard, or to the login page remembering the
// requested location.
func Guard(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := guard.Decide(CurrentSession(c), allowed, c.Request().URL.RequestURI())
			metrics.GuardDecisionsTotal.WithLabelValues(d.Outcome).Inc()
			if d.Render {
				return next(c)
			}
			return c.Redirect(http.StatusSeeOther, d.Redirect)
		}
	}
}
