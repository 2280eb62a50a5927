package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/api/metrics"
	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/ports"
)

// SessionService is the single authoritative owner of the current identity:
// who is logged in, which role they carry, and the side effects that must
// happen around identity changes. All other components read session state
// through it; only it writes the token store and the default API credential.
type SessionService struct {
	api   ports.AuthAPI
	store ports.TokenStore
	push  ports.PushRegistrar
	log   zerolog.Logger

	mu      sync.RWMutex
	user    *domain.User
	token   string
	loading bool

	listenerMu sync.Mutex
	listeners  []func(*domain.User)
}

func NewSessionService(api ports.AuthAPI, store ports.TokenStore, push ports.PushRegistrar, log zerolog.Logger) *SessionService {
	return &SessionService{
		api:     api,
		store:   store,
		push:    push,
		log:     log,
		loading: true,
	}
}

// OnIdentityChange registers fn to run after every identity change, with the
// new user (nil on logout). Listeners run synchronously in registration order
// once the session state has settled.
func (s *SessionService) OnIdentityChange(fn func(*domain.User)) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

// Bootstrap restores the session from the persisted token, once per process.
// It never returns an error: any failure, including an expired or rejected
// token, degrades to the logged-out state with the stale token cleared.
// Loading() reports true until Bootstrap resolves either way.
func (s *SessionService) Bootstrap(ctx context.Context) {
	defer s.finishLoading()

	token, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token store unreadable, starting logged out")
		metrics.SessionOpsTotal.WithLabelValues("bootstrap", "error").Inc()
		return
	}
	if token == "" {
		metrics.SessionOpsTotal.WithLabelValues("bootstrap", "anonymous").Inc()
		return
	}

	s.api.SetToken(token)
	user, err := s.api.Me(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("persisted token rejected, clearing it")
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.log.Warn().Err(clearErr).Msg("failed to clear persisted token")
		}
		s.api.ClearToken()
		metrics.SessionOpsTotal.WithLabelValues("bootstrap", "rejected").Inc()
		return
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	s.enablePush(ctx, user)
	s.notifyIdentity(user)
	metrics.SessionOpsTotal.WithLabelValues("bootstrap", "ok").Inc()

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("session restored")
}

// Login authenticates with the backend. The API error, if any, is returned
// unchanged for form-level display; session state is untouched on failure.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		metrics.SessionOpsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}
	s.establish(ctx, sess)
	metrics.SessionOpsTotal.WithLabelValues("login", "ok").Inc()
	return sess.User, nil
}

// Register creates an account and signs it in. Same contract as Login.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	sess, err := s.api.Register(ctx, in)
	if err != nil {
		metrics.SessionOpsTotal.WithLabelValues("register", "error").Inc()
		return nil, err
	}
	s.establish(ctx, sess)
	metrics.SessionOpsTotal.WithLabelValues("register", "ok").Inc()
	return sess.User, nil
}

// establish commits a fresh credential pair: state first, then persistence and
// the default request credential, then the best-effort push side effect. The
// ordering is a contract — the session must be observable before any side
// effect runs.
func (s *SessionService) establish(ctx context.Context, sess *domain.AuthSession) {
	s.mu.Lock()
	s.user = sess.User
	s.token = sess.Token
	s.mu.Unlock()

	if err := s.store.Save(ctx, sess.Token); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token")
	}
	s.api.SetToken(sess.Token)

	s.enablePush(ctx, sess.User)
	s.notifyIdentity(sess.User)
}

// Logout tears the session down. The realtime push state is cleared first,
// then the server is told, and the local session state is cleared
// unconditionally even when both of those fail.
func (s *SessionService) Logout(ctx context.Context) {
	defer func() {
		s.clearSession(ctx)
		metrics.SessionOpsTotal.WithLabelValues("logout", "ok").Inc()
	}()

	if err := s.push.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear push state")
	}
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
}

// ForceLogout clears the local session after the backend rejected an
// authenticated call. No server round-trips: the credential is already dead.
// A no-op when nobody is logged in, so repeated rejections cannot loop.
func (s *SessionService) ForceLogout(ctx context.Context) {
	s.mu.Lock()
	active := s.user != nil || s.token != ""
	s.mu.Unlock()
	if !active {
		return
	}

	s.log.Info().Msg("authentication rejected, forcing logout")
	metrics.SessionOpsTotal.WithLabelValues("forced_logout", "ok").Inc()
	s.clearSession(ctx)
}

// clearSession nulls user and token together, then the persisted token, then
// the default request credential, in that order.
func (s *SessionService) clearSession(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted token")
	}
	s.api.ClearToken()
	s.notifyIdentity(nil)
}

// enablePush attempts device registration and identity binding. Failures are
// logged and swallowed: push delivery is optional and must never affect the
// authentication outcome.
func (s *SessionService) enablePush(ctx context.Context, user *domain.User) {
	if !s.push.Supported() {
		s.log.Debug().Msg("push notifications unsupported, skipping registration")
		metrics.PushRegistrationsTotal.WithLabelValues(ports.PushUnsupported.String()).Inc()
		return
	}
	result, err := s.push.Register(ctx, user.ID)
	metrics.PushRegistrationsTotal.WithLabelValues(result.String()).Inc()
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("push registration incomplete")
		return
	}
	if result == ports.PushRegistered {
		s.log.Debug().Int64("user_id", user.ID).Msg("push identity bound")
	}
}

func (s *SessionService) notifyIdentity(user *domain.User) {
	s.listenerMu.Lock()
	listeners := make([]func(*domain.User), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

func (s *SessionService) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// Loading reports whether the initial bootstrap is still in flight. While
// true the session is neither authenticated nor unauthenticated and guards
// must suspend both protected and public content.
func (s *SessionService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether both a user and a token are present.
func (s *SessionService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (s *SessionService) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// CurrentRole returns the logged-in user's role, or the empty role.
func (s *SessionService) CurrentRole() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// HasRole reports whether the current role is one of the given roles.
func (s *SessionService) HasRole(roles ...domain.Role) bool {
	current := s.CurrentRole()
	if current == "" {
		return false
	}
	for _, r := range roles {
		if current == r {
			return true
		}
	}
	return false
}

func (s *SessionService) IsAdmin() bool   { return s.HasRole(domain.RoleAdmin) }
func (s *SessionService) IsPartner() bool { return s.HasRole(domain.RolePartner) }
func (s *SessionService) IsClient() bool  { return s.HasRole(domain.RoleClient) }
