package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, zerolog.Nop())
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "ana@example.com" || req.Password != "secret" {
			t.Fatalf("unexpected credentials: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 7, "name": "Ana", "email": "ana@example.com", "role": "partner"},
			"token": "tok-1",
		})
	})

	sess, err := client.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if sess.Token != "tok-1" || sess.User == nil || sess.User.Role != domain.RolePartner {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	hookFired := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})
	client.OnAuthRejected(func() { hookFired = true })

	_, err := client.Login(context.Background(), "ana@example.com", "bad")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hookFired {
		t.Fatalf("rejected login must not fire the auth-rejected hook")
	}
}

func TestClient_BearerTokenLifecycle(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "role": "client"})
	})

	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no credential before SetToken, got %q", gotAuth)
	}

	client.SetToken("tok-2")
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if gotAuth != "Bearer tok-2" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}

	client.ClearToken()
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected credential cleared, got %q", gotAuth)
	}
}

func TestClient_AuthRejectedHook(t *testing.T) {
	hookCalls := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client.OnAuthRejected(func() { hookCalls++ })

	_, _, err := client.List(context.Background(), ports.ListOptions{})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if hookCalls != 1 {
		t.Fatalf("expected hook fired once, got %d", hookCalls)
	}

	// Auth-surface 401s never fire it.
	_ = client.Logout(context.Background())
	if hookCalls != 1 {
		t.Fatalf("logout 401 must not fire the hook, got %d calls", hookCalls)
	}
}

func TestClient_ValidationErrorVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "The email has already been taken.",
		})
	})

	_, err := client.Register(context.Background(), ports.RegisterInput{Email: "dup@example.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "The email has already been taken.") {
		t.Fatalf("expected backend message preserved, got %q", err.Error())
	}
}

func TestClient_RegisterConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.Register(context.Background(), ports.RegisterInput{Email: "dup@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestClient_RegisterSendsConfirmation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PasswordConfirmation != req.Password {
			t.Fatalf("expected confirmation mirroring the password, got %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 12, "role": "client"},
			"token": "tok-3",
		})
	})

	sess, err := client.Register(context.Background(), ports.RegisterInput{
		Name: "Bea", Email: "bea@example.com", Password: "s3cretpass",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if sess.User.ID != 12 {
		t.Fatalf("unexpected user: %+v", sess.User)
	}
}

func TestClient_NotificationList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("per_page") != "5" || q.Get("unread_only") != "true" || q.Get("type") != "user.registered" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": 1, "type": "user.registered", "title": "Welcome", "created_at": "2026-02-01T09:00:00Z"},
			},
			"meta": map[string]any{"current_page": 1, "last_page": 1, "per_page": 5, "total": 1},
		})
	})

	list, meta, err := client.List(context.Background(), ports.ListOptions{
		Type: "user.registered", UnreadOnly: true, PerPage: 5,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if meta == nil || meta.Total != 1 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestClient_MarkReadNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/notifications/9/read" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.MarkRead(context.Background(), 9); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestClient_UnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/unread-count" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"count": 4})
	})

	count, err := client.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
}

func TestClient_AuthorizeChannel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/broadcasting/auth" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req channelAuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ChannelName != "user.42" {
			t.Fatalf("unexpected channel: %s", req.ChannelName)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"auth": "grant-token"})
	})

	grant, err := client.AuthorizeChannel(context.Background(), "user.42")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if grant != "grant-token" {
		t.Fatalf("unexpected grant: %s", grant)
	}
}
