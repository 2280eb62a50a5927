package ports

import (
	"context"

	"github.com/clubly/loyalty-agent/internal/core/domain"
)

// RegisterInput carries the fields of a registration request. The confirmation
// field is filled by the API client, always equal to the password.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthAPI is the authentication surface of the platform backend. SetToken and
// ClearToken control the default bearer credential attached to every request;
// only the session service writes them.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.AuthSession, error)
	Register(ctx context.Context, in RegisterInput) (*domain.AuthSession, error)
	Me(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error

	SetToken(token string)
	ClearToken()
}

// TokenStore is a single durable slot holding the bearer token across
// restarts. Load returns an empty string when no token is persisted.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
