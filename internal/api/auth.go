package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// TokenPair is the bearer credential pair issued by the token endpoints.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ObtainTokens exchanges credentials for a token pair.
// Returns domain.ErrUnauthorized for rejected credentials.
func (c *Client) ObtainTokens(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.do(ctx, nil, http.MethodPost, "/token/", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("obtain tokens: %w", err)
	}
	return pair, nil
}

// RefreshAccess exchanges a refresh token for a new access token. The call
// is issued with a nil session so the refresh-once protocol can never apply
// to the refresh endpoint itself.
func (c *Client) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh": refreshToken}
	var out struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, nil, http.MethodPost, refreshPath, body, &out); err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return out.Access, nil
}

// Register creates an account. The endpoint returns the token pair and the
// new user record in one response, so no follow-up profile fetch is needed.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (TokenPair, *domain.User, error) {
	body := map[string]string{
		"email":      reg.Email,
		"first_name": reg.FirstName,
		"last_name":  reg.LastName,
		"password":   reg.Password,
	}
	var out struct {
		Access  string      `json:"access"`
		Refresh string      `json:"refresh"`
		User    userPayload `json:"user"`
	}
	if err := c.do(ctx, nil, http.MethodPost, "/users/register/", body, &out); err != nil {
		return TokenPair{}, nil, fmt.Errorf("register: %w", err)
	}
	return TokenPair{Access: out.Access, Refresh: out.Refresh}, out.User.toDomain(), nil
}

// ResetPassword requests a password-reset email. The endpoint acknowledges
// without a useful body.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := c.do(ctx, nil, http.MethodPost, "/users/password-reset/", body, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
