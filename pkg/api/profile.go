package api

import (
	"context"
	"net/http"

	"github.com/suckyear/suckyear/pkg/model"
)

// GetProfile fetches the profile of the token's owner.
func (c *Client) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	if token == "" {
		return nil, notAuthenticated("GetProfile")
	}
	var p model.Profile
	err := c.Do(ctx, Request{
		Op:     "GetProfile",
		Method: http.MethodGet,
		Path:   "/users/profile",
		Bearer: token,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the profile of the token's owner.
func (c *Client) UpdateProfile(ctx context.Context, token string, p model.Profile) (*model.User, error) {
	if token == "" {
		return nil, notAuthenticated("UpdateProfile")
	}
	var user model.User
	err := c.Do(ctx, Request{
		Op:     "UpdateProfile",
		Method: http.MethodPut,
		Path:   "/users/profile",
		JSON:   p,
		Bearer: token,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
