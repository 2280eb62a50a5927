package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

// Session is the read-only session state the guard consumes.
type Session interface {
	Loading() bool
	Authenticated() bool
	CurrentRole() domain.Role
}

// loadingBody is served while the session bootstrap is still in flight: the
// session is neither authenticated nor unauthenticated yet, so neither the
// protected content nor a login redirect may be committed.
var loadingBody = map[string]string{"status": "loading"}

// Guard gates a protected route. Unauthenticated requests are redirected to
// the login route; authenticated requests whose role is not allowed are
// redirected to their own role's default landing route, never to an error
// page.
func Guard(session Session, allowed ...domain.Role) echo.MiddlewareFunc {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if session.Loading() {
				return c.JSON(http.StatusOK, loadingBody)
			}
			if !session.Authenticated() {
				return c.Redirect(http.StatusFound, domain.LoginRoute)
			}
			role := session.CurrentRole()
			if _, ok := allowedSet[role]; !ok {
				return c.Redirect(http.StatusFound, domain.DefaultRouteFor(role))
			}
			return next(c)
		}
	}
}
