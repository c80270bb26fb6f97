package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suckyear/suckyear/internal/store"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// fakeBackend serves a fixed set of posts and a single account.
type fakeBackend struct {
	mu       sync.Mutex
	posts    []model.PostSummary
	queries  []model.PostsQuery
	token    string
	password string
	profile  model.Profile
	created  []model.NewPost
	listErr  error
}

func newFakeBackend(token string) *fakeBackend {
	return &fakeBackend{
		posts: []model.PostSummary{
			{ID: "1", Author: "alice", Text: "first failure", Rating: 4.5},
			{ID: "2", Author: "bob", Text: "second failure", Rating: 3},
			{ID: "3", Author: "carol", Text: "burnt toast", Rating: 1},
		},
		token:    token,
		password: "secret",
		profile:  model.Profile{Username: "alice", Email: "alice@example.com"},
	}
}

func (f *fakeBackend) ListPosts(ctx context.Context, q model.PostsQuery) (*model.PostsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var items []model.PostSummary
	for _, p := range f.posts {
		if q.Search == "" || strings.Contains(p.Text, q.Search) {
			items = append(items, p)
		}
	}
	return &model.PostsPage{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}

func (f *fakeBackend) lastQuery() model.PostsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return model.PostsQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeBackend) createdPosts() []model.NewPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.NewPost(nil), f.created...)
}

func (f *fakeBackend) GetPost(ctx context.Context, id string) (*model.PostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if string(p.ID) == id {
			post := p
			return &post, nil
		}
	}
	return nil, api.NewError("get post", http.StatusNotFound, api.MsgNotFound)
}

func (f *fakeBackend) CreatePost(ctx context.Context, token string, p model.NewPost) (*model.PostSummary, error) {
	if token != f.token {
		return nil, api.NewError("create post", http.StatusUnauthorized, "Unauthorized")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	post := model.PostSummary{ID: "42", Author: "alice", Text: p.Content}
	f.posts = append(f.posts, post)
	return &post, nil
}

func (f *fakeBackend) Login(ctx context.Context, creds model.LoginCredentials) (*model.LoginResult, error) {
	if creds.Username != f.profile.Username {
		return nil, &api.Error{Op: "login", Status: http.StatusNotFound, Message: api.MsgNotFound, Detail: "User not found"}
	}
	if creds.Password != f.password {
		return nil, &api.Error{Op: "login", Status: http.StatusUnauthorized, Message: "Incorrect password", Detail: "Incorrect password"}
	}
	return &model.LoginResult{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeBackend) Register(ctx context.Context, r model.RegisterRequest) (*model.User, error) {
	if r.Username == f.profile.Username {
		return nil, &api.Error{Op: "register", Status: http.StatusBadRequest, Message: "Username already registered", Detail: "Username already registered"}
	}
	return &model.User{ID: "7", Username: r.Username, Email: r.Email}, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	if token != f.token {
		return nil, api.NewError("get profile", http.StatusUnauthorized, "Unauthorized")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, token string, p model.Profile) (*model.User, error) {
	if token != f.token {
		return nil, api.NewError("update profile", http.StatusUnauthorized, "Unauthorized")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
	return &model.User{ID: "1", Username: p.Username, Email: p.Email}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func makeToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// testEnv is a running web server with a browser-like client that keeps
// cookies and does not follow redirects.
type testEnv struct {
	srv     *Server
	backend *fakeBackend
	store   store.Store
	http    *httptest.Server
	client  *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := newFakeBackend(makeToken(t, "alice", time.Now().Add(time.Hour)))
	st := setupTestStore(t)
	srv := New(Config{Debounce: 10 * time.Millisecond, Heartbeat: time.Second}, backend, st, testLogger())
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{srv: srv, backend: backend, store: st, http: ts, client: client}
}

func (e *testEnv) do(t *testing.T, method, path string, form map[string]string, headers map[string]string) (*http.Response, string) {
	t.Helper()
	vals := url.Values{}
	for k, v := range form {
		vals.Set(k, v)
	}
	body := strings.NewReader(vals.Encode())
	req, err := http.NewRequest(method, e.http.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.String()
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	return e.do(t, http.MethodGet, path, nil, nil)
}

func (e *testEnv) post(t *testing.T, path string, form map[string]string) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = map[string]string{}
	}
	return e.do(t, http.MethodPost, path, form, nil)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp, body := e.post(t, "/login", map[string]string{"username": "alice", "password": "secret"})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: status=%d body=%s", resp.StatusCode, body)
	}
}
