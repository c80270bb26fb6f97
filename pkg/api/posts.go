package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/suckyear/suckyear/pkg/model"
)

// ListPosts fetches one page of posts matching q.
func (c *Client) ListPosts(ctx context.Context, q model.PostsQuery) (*model.PostsPage, error) {
	var page model.PostsPage
	err := c.Do(ctx, Request{
		Op:     "ListPosts",
		Method: http.MethodGet,
		Path:   "/posts/",
		Query:  q.Values(),
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*model.PostSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewError("GetPost", http.StatusNotFound, MsgNotFound)
	}
	var post model.PostSummary
	err := c.Do(ctx, Request{
		Op:     "GetPost",
		Method: http.MethodGet,
		Path:   "/posts/" + url.PathEscape(id),
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new post. The token is optional; without it the
// call falls back to the configured basic credentials.
func (c *Client) CreatePost(ctx context.Context, token string, p model.NewPost) (*model.PostSummary, error) {
	var post model.PostSummary
	err := c.Do(ctx, Request{
		Op:     "CreatePost",
		Method: http.MethodPost,
		Path:   "/posts/",
		JSON:   p,
		Bearer: token,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
