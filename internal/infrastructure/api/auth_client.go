package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/ports"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Login exchanges credentials for a user/token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	var sess domain.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account. The confirmation field is always set equal to
// the password; the backend requires it, the caller never supplies it.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*domain.AuthSession, error) {
	req := registerRequest{
		Name:                 in.Name,
		Email:                in.Email,
		Phone:                in.Phone,
		Password:             in.Password,
		PasswordConfirmation: in.Password,
	}
	var sess domain.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Me fetches the user the current credential belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the credential server-side. Callers treat failures as
// best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

type channelAuthRequest struct {
	ChannelName string `json:"channel_name"`
}

type channelAuthResponse struct {
	Auth string `json:"auth"`
}

// AuthorizeChannel signs a private-channel join request with the current
// bearer token and returns the grant.
func (c *Client) AuthorizeChannel(ctx context.Context, channel string) (string, error) {
	var resp channelAuthResponse
	if err := c.do(ctx, http.MethodPost, "/broadcasting/auth", nil, channelAuthRequest{ChannelName: channel}, &resp); err != nil {
		return "", err
	}
	return resp.Auth, nil
}

type beamsTokenResponse struct {
	Token string `json:"token"`
}

// BeamsToken fetches the user-scoped signed token used only by the push
// registrar's identity-binding step.
func (c *Client) BeamsToken(ctx context.Context, userID int64) (string, error) {
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	var resp beamsTokenResponse
	if err := c.do(ctx, http.MethodGet, "/pusher/beams-auth", q, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}
