package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

type stubSession struct {
	loading       bool
	authenticated bool
	role          domain.Role
}

func (s *stubSession) Loading() bool            { return s.loading }
func (s *stubSession) Authenticated() bool      { return s.authenticated }
func (s *stubSession) CurrentRole() domain.Role { return s.role }

func callGuard(t *testing.T, session *stubSession, allowed ...domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.String(http.StatusOK, "content")
	}
	if err := Guard(session, allowed...)(next)(c); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
	return rec
}

func TestGuard_LoadingServesPlaceholder(t *testing.T) {
	rec := callGuard(t, &stubSession{loading: true}, domain.RoleAdmin)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"loading"`) {
		t.Fatalf("expected loading placeholder, got %s", rec.Body.String())
	}
}

func TestGuard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	rec := callGuard(t, &stubSession{}, domain.RoleAdmin)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login" {
		t.Fatalf("expected login redirect, got %s", got)
	}
}

func TestGuard_RoleMismatchRedirectsHome(t *testing.T) {
	cases := []struct {
		role domain.Role
		want string
	}{
		{domain.RoleClient, "/dashboard"},
		{domain.RolePartner, "/partner/dashboard"},
		{domain.RoleAdmin, "/admin/dashboard"},
	}
	for _, tc := range cases {
		allowed := domain.RoleAdmin
		if tc.role == domain.RoleAdmin {
			allowed = domain.RoleClient
		}
		rec := callGuard(t, &stubSession{authenticated: true, role: tc.role}, allowed)

		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", tc.role, rec.Code)
		}
		if got := rec.Header().Get(echo.HeaderLocation); got != tc.want {
			t.Fatalf("%s: expected redirect to %s, got %s", tc.role, tc.want, got)
		}
	}
}

func TestGuard_AllowedRolePassesThrough(t *testing.T) {
	rec := callGuard(t, &stubSession{authenticated: true, role: domain.RoleAdmin}, domain.RoleAdmin)

	if rec.Code != http.StatusOK || rec.Body.String() != "content" {
		t.Fatalf("expected handler output, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuard_UnknownRoleRedirectsToLogin(t *testing.T) {
	rec := callGuard(t, &stubSession{authenticated: true, role: "ghost"}, domain.RoleAdmin)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login" {
		t.Fatalf("expected login fallback, got %s", got)
	}
}
