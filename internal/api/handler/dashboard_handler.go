package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/service"
)

// DashboardHandler serves the role landing pages' view-state. The pages
// themselves are thin; what matters here is the deterministic role→route
// behavior exercised by the guard and the landing redirect.
type DashboardHandler struct {
	sessions *service.SessionService
}

func NewDashboardHandler(sessions *service.SessionService) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// Landing redirects "/" to the current role's default route. While the
// session bootstrap is in flight it serves the loading placeholder instead of
// committing to either redirect.
func (h *DashboardHandler) Landing(c echo.Context) error {
	if h.sessions.Loading() {
		return c.JSON(http.StatusOK, map[string]string{"status": "loading"})
	}
	if !h.sessions.Authenticated() {
		return c.Redirect(http.StatusFound, domain.LoginRoute)
	}
	return c.Redirect(http.StatusFound, domain.DefaultRouteFor(h.sessions.CurrentRole()))
}

type dashboardView struct {
	Page string       `json:"page"`
	User *domain.User `json:"user"`
}

func (h *DashboardHandler) Client(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboardView{Page: "dashboard", User: h.sessions.CurrentUser()})
}

func (h *DashboardHandler) Partner(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboardView{Page: "partner-dashboard", User: h.sessions.CurrentUser()})
}

func (h *DashboardHandler) Admin(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboardView{Page: "admin-dashboard", User: h.sessions.CurrentUser()})
}
