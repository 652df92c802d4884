package client

import (
	"context"
	"errors"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response payload
type LoginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user,omitempty"`
}

// Login posts the credentials to /auth/login. On an OK response carrying a
// token the client token is set and the returned user record is persisted.
// Non-OK responses are returned untouched for the caller to inspect.
func (c *Client) Login(ctx context.Context, email, password string) (*Response, error) {
	resp, err := c.Post(ctx, "/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &RequestOptions{SkipAuth: true})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return resp, nil
	}

	payload, err := Decode[LoginResponse](resp)
	if err != nil || payload.Token == "" {
		c.logger.Warn().Int("status", resp.Status).Msg("Login response did not contain a token")
		return resp, nil
	}

	if err := c.SetToken(payload.Token); err != nil {
		return resp, err
	}

	if payload.User != nil {
		if err := auth.SaveUser(c.store, *payload.User); err != nil {
			return resp, err
		}
	} else if err := auth.DeleteUser(c.store); err != nil {
		return resp, err
	}

	c.logger.Info().Str("email", email).Msg("Logged in")
	return resp, nil
}

// Logout clears the token and the cached user record
func (c *Client) Logout() error {
	return errors.Join(c.ClearToken(), auth.DeleteUser(c.store))
}

// Me fetches the current user from the API
func (c *Client) Me(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/auth/me", nil)
}
