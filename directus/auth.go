package directus

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AuthTokens is the payload returned by the /auth endpoints.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"`
}

// Login authenticates with the credentials configured via WithCredentials
// and stores the returned temporary tokens. A static token, if configured,
// keeps precedence over the temporary token for subsequent requests.
func (c *Client) Login(ctx context.Context) (*AuthTokens, error) {
	c.tokenMu.RLock()
	email, password := c.email, c.password
	c.tokenMu.RUnlock()
	if email == "" || password == "" {
		return nil, fmt.Errorf("directus: no credentials configured")
	}

	var tokens AuthTokens
	body := map[string]string{"email": email, "password": password}
	if err := c.authRequest(ctx, "POST", "/auth/login", body, &tokens); err != nil {
		return nil, err
	}

	c.tokenMu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.expires = tokens.Expires
	c.tokenMu.Unlock()

	c.emit(ClientEvent{Type: AuthLogin})
	c.logger.Info("logged in", zap.String("email", email))
	return &tokens, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*AuthTokens, error) {
	c.tokenMu.RLock()
	refresh := c.refreshToken
	c.tokenMu.RUnlock()
	if refresh == "" {
		return nil, fmt.Errorf("directus: no refresh token available")
	}

	var tokens AuthTokens
	body := map[string]string{"refresh_token": refresh, "mode": "json"}
	if err := c.authRequest(ctx, "POST", "/auth/refresh", body, &tokens); err != nil {
		return nil, err
	}

	c.tokenMu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.expires = tokens.Expires
	c.tokenMu.Unlock()

	c.emit(ClientEvent{Type: AuthRefreshed})
	return &tokens, nil
}

// Logout invalidates the stored refresh token and clears the temporary token
// state.
func (c *Client) Logout(ctx context.Context) error {
	c.tokenMu.RLock()
	refresh := c.refreshToken
	c.tokenMu.RUnlock()

	body := map[string]string{"refresh_token": refresh}
	if err := c.do(ctx, "POST", "/auth/logout", body, nil); err != nil {
		return err
	}

	c.tokenMu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.expires = 0
	c.tokenMu.Unlock()

	c.emit(ClientEvent{Type: AuthLogout})
	return nil
}

// token returns the current bearer token. A static token takes precedence
// over a temporary one; an empty string means unauthenticated.
func (c *Client) token() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	if c.staticToken != "" {
		return c.staticToken
	}
	return c.accessToken
}

// ensureToken performs a lazy login when credentials are configured but no
// token has been obtained yet.
func (c *Client) ensureToken(ctx context.Context) error {
	c.tokenMu.RLock()
	needsLogin := c.staticToken == "" && c.accessToken == "" && c.email != ""
	c.tokenMu.RUnlock()
	if !needsLogin {
		return nil
	}
	_, err := c.Login(ctx)
	return err
}
