package model

import (
	"net/mail"
	"strings"
)

// User is an account as returned by registration and profile updates.
type User struct {
	ID       Ref    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Profile is the editable part of the current user's account.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Validate checks the profile fields.
func (p Profile) Validate() error {
	var details []FieldError
	if strings.TrimSpace(p.Username) == "" {
		details = append(details, FieldError{Field: "username", Message: "required"})
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			details = append(details, FieldError{Field: "email", Message: "invalid address"})
		}
	}
	if len(details) > 0 {
		return NewValidationError("invalid profile", details...)
	}
	return nil
}

// LoginCredentials are the username and password of a login attempt.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the body of POST /api/v1/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginResult is what a successful login yields. User is nil until the
// backend exposes the current-user endpoint.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// RegisterRequest is the body of POST /api/v1/users.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Validate checks the registration fields.
func (r RegisterRequest) Validate() error {
	var details []FieldError
	if strings.TrimSpace(r.Username) == "" {
		details = append(details, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		details = append(details, FieldError{Field: "password", Message: "required"})
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		details = append(details, FieldError{Field: "email", Message: "invalid address"})
	}
	if len(details) > 0 {
		return NewValidationError("invalid registration", details...)
	}
	return nil
}
