package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suckyear/suckyear/pkg/model"
)

// Login exchanges credentials for an access token using the password grant.
func (c *Client) Login(ctx context.Context, creds model.LoginCredentials) (*model.LoginResult, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	form.Set("grant_type", "password")
	form.Set("scope", "")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	var tok model.TokenResponse
	err := c.Do(ctx, Request{
		Op:     "Login",
		Method: http.MethodPost,
		Path:   "/token",
		Form:   form,
	}, &tok)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &Error{Op: "Login", Status: http.StatusOK, Message: MsgMalformed, Err: ErrInvalidToken}
	}
	return &model.LoginResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
	}, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, r model.RegisterRequest) (*model.User, error) {
	var user model.User
	err := c.Do(ctx, Request{
		Op:     "Register",
		Method: http.MethodPost,
		Path:   "/users",
		JSON:   r,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TokenInfo holds the claims of an access token that the client cares about.
type TokenInfo struct {
	Subject string
	Expiry  time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (t TokenInfo) Expired() bool {
	return !t.Expiry.IsZero() && time.Now().After(t.Expiry)
}

// ParseAccessToken reads the claims of a JWT access token. The signature is
// not verified; the backend holds the key and rejects forged tokens itself.
func ParseAccessToken(raw string) (*TokenInfo, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.Expiry = exp.Time
	}
	return info, nil
}

// UsernameFromToken returns the subject of a token, or "" if it cannot be read.
func UsernameFromToken(raw string) string {
	info, err := ParseAccessToken(raw)
	if err != nil {
		return ""
	}
	return info.Subject
}
