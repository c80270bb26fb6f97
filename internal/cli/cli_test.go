package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/pkg/model"
)

// testBackend is an in-memory SuckYear API.
type testBackend struct {
	mu        sync.Mutex
	posts     []map[string]any
	token     string
	profile   model.Profile
	failLists bool
}

func startTestBackend(t *testing.T) (*testBackend, string) {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	b := &testBackend{
		posts: []map[string]any{
			{"id": 1, "author": "alice", "text": "first failure", "rating": 4.5, "created_at": "2024-05-01T10:00:00"},
			{"id": 2, "author": "bob", "text": "second failure", "rating": 3, "created_at": "2024-05-02T10:00:00"},
			{"id": 3, "author": "carol", "text": "burnt toast", "rating": 1, "created_at": "2024-05-03T10:00:00"},
		},
		token:   raw,
		profile: model.Profile{Username: "alice", Email: "alice@example.com"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/posts/{$}", b.handleList)
	mux.HandleFunc("GET /api/v1/posts/{id}", b.handleGet)
	mux.HandleFunc("POST /api/v1/posts/{$}", b.handleCreate)
	mux.HandleFunc("POST /api/v1/token", b.handleToken)
	mux.HandleFunc("POST /api/v1/users", b.handleRegister)
	mux.HandleFunc("GET /api/v1/users/profile", b.handleProfile)
	mux.HandleFunc("PUT /api/v1/users/profile", b.handleProfileUpdate)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return b, ts.URL
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *testBackend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+b.token
}

func (b *testBackend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failLists {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
		return
	}
	search := r.URL.Query().Get("search")
	items := []map[string]any{}
	for _, p := range b.posts {
		if search == "" || strings.Contains(p["text"].(string), search) {
			items = append(items, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items), "page": 1, "size": 10})
}

func (b *testBackend) handleGet(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.posts {
		if jsonID(p["id"]) == r.PathValue("id") {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Post not found"})
}

func jsonID(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func (b *testBackend) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	var p model.NewPost
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	post := map[string]any{"id": 42, "author": "alice", "text": p.Content, "rating": 0}
	b.posts = append(b.posts, post)
	writeJSON(w, http.StatusCreated, post)
}

func (b *testBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.FormValue("grant_type") != "password" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "bad form"})
		return
	}
	if r.FormValue("username") != "alice" {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "User not found"})
		return
	}
	if r.FormValue("password") != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": b.token, "token_type": "bearer"})
}

func (b *testBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": 7, "username": req.Username, "email": req.Email})
}

func (b *testBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.profile)
}

func (b *testBackend) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
		return
	}
	var p model.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profile = p
	writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": p.Username, "email": p.Email})
}

// cliEnv runs commands against one backend and one preference database.
type cliEnv struct {
	backend *testBackend
	url     string
	db      string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	b, url := startTestBackend(t)
	return &cliEnv{backend: b, url: url, db: filepath.Join(t.TempDir(), "prefs.db")}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api", e.url, "--db", e.db, "--log-level", "error"}, args...))

	err := root.Execute()
	return buf.String(), err
}

func TestPostsListCommand(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "", "posts", "list")
	if err != nil {
		t.Fatalf("posts list error: %v\noutput: %s", err, output)
	}
	for _, author := range []string{"alice", "bob", "carol"} {
		if !strings.Contains(output, author) {
			t.Errorf("expected %q in output, got: %s", author, output)
		}
	}
	if !strings.Contains(output, "[1]") || !strings.Contains(output, "(3 posts)") {
		t.Errorf("expected pager in output, got: %s", output)
	}

	output, err = env.run(t, "", "posts", "list", "--search", "toast")
	if err != nil {
		t.Fatalf("posts list --search error: %v", err)
	}
	if !strings.Contains(output, "carol") || strings.Contains(output, "bob") {
		t.Errorf("search not applied, got: %s", output)
	}

	output, err = env.run(t, "", "posts", "list", "--search", "nothing-matches")
	if err != nil {
		t.Fatalf("posts list error: %v", err)
	}
	if !strings.Contains(output, posts.EmptyPlaceholder.Title) {
		t.Errorf("expected empty placeholder, got: %s", output)
	}
}

func TestPostsListCommand_InvalidFlags(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run(t, "", "posts", "list", "--sort", "title"); err == nil {
		t.Error("expected error for invalid sort field")
	}
	if _, err := env.run(t, "", "posts", "list", "--page", "0"); err == nil {
		t.Error("expected error for page 0")
	}
}

func TestPostsListCommand_ServerError(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.failLists = true

	_, err := env.run(t, "", "posts", "list")
	if err == nil {
		t.Fatal("expected error")
	}
	want := posts.LoadErrorPrefix + posts.TextServer
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestPostsShowCommand(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "", "posts", "show", "2")
	if err != nil {
		t.Fatalf("posts show error: %v", err)
	}
	if !strings.Contains(output, "Author:  bob") || !strings.Contains(output, "second failure") {
		t.Errorf("unexpected output: %s", output)
	}

	_, err = env.run(t, "", "posts", "show", "99")
	if err == nil || !strings.Contains(err.Error(), posts.TextNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "", "whoami")
	if err != nil || !strings.Contains(output, "Not logged in") {
		t.Fatalf("whoami before login: %v, %s", err, output)
	}

	output, err = env.run(t, "", "login", "-u", "alice", "-p", "secret")
	if err != nil {
		t.Fatalf("login error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Logged in as alice") {
		t.Errorf("unexpected login output: %s", output)
	}

	output, err = env.run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami error: %v", err)
	}
	if !strings.Contains(output, "User:    alice") || !strings.Contains(output, "valid") {
		t.Errorf("unexpected whoami output: %s", output)
	}

	output, err = env.run(t, "", "profile", "show")
	if err != nil {
		t.Fatalf("profile show error: %v", err)
	}
	if !strings.Contains(output, "alice@example.com") {
		t.Errorf("unexpected profile output: %s", output)
	}

	if _, err := env.run(t, "", "logout"); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if _, err := env.run(t, "", "profile", "show"); err == nil {
		t.Error("profile show should fail after logout")
	}
}

func TestLoginCommand_Prompts(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "alice\nsecret\n", "login")
	if err != nil {
		t.Fatalf("login error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Username: ") || !strings.Contains(output, "Logged in as alice") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLoginCommand_Failures(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "login", "-u", "ghost", "-p", "x")
	if err == nil || !strings.Contains(err.Error(), "user not found") {
		t.Errorf("expected user not found, got %v", err)
	}

	_, err = env.run(t, "", "login", "-u", "alice", "-p", "wrong")
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Errorf("expected login failed, got %v", err)
	}
}

func TestRegisterCommand(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "", "register", "-u", "dave", "-e", "dave@example.com", "-p", "pw")
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if !strings.Contains(output, "Registered dave <dave@example.com>") {
		t.Errorf("unexpected output: %s", output)
	}

	if _, err := env.run(t, "", "register", "-u", "dave", "-e", "not-an-email", "-p", "pw"); err == nil {
		t.Error("expected validation error for bad email")
	}
}

func TestPostsCreateCommand(t *testing.T) {
	env := newCLIEnv(t)

	if _, err := env.run(t, "", "posts", "create", "-t", "Oops", "-c", "cake"); err == nil {
		t.Fatal("create without login should fail")
	}

	if _, err := env.run(t, "", "login", "-u", "alice", "-p", "secret"); err != nil {
		t.Fatal(err)
	}
	output, err := env.run(t, "dropped the cake\n", "posts", "create", "-t", "Oops", "-c", "-")
	if err != nil {
		t.Fatalf("create error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Post created: 42") {
		t.Errorf("unexpected output: %s", output)
	}

	if _, err := env.run(t, "", "posts", "create", "-t", "", "-c", "x"); err == nil {
		t.Error("expected validation error for empty title")
	}
}

func TestProfileUpdateCommand(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run(t, "", "login", "-u", "alice", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	output, err := env.run(t, "", "profile", "update", "--email", "new@example.com")
	if err != nil {
		t.Fatalf("profile update error: %v", err)
	}
	if !strings.Contains(output, "Profile updated") || !strings.Contains(output, "Username: alice") {
		t.Errorf("unexpected output: %s", output)
	}
	if env.backend.profile.Email != "new@example.com" {
		t.Errorf("email = %q", env.backend.profile.Email)
	}

	if _, err := env.run(t, "", "profile", "update"); err == nil {
		t.Error("expected error without flags")
	}
}

func TestThemeCommands(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "", "theme", "show")
	if err != nil || !strings.Contains(output, "Theme: light") {
		t.Fatalf("theme show: %v, %s", err, output)
	}

	output, err = env.run(t, "", "theme", "toggle")
	if err != nil || !strings.Contains(output, "Theme: dark") {
		t.Fatalf("theme toggle: %v, %s", err, output)
	}

	// The flag persists across invocations.
	output, err = env.run(t, "", "theme", "show", "--css")
	if err != nil {
		t.Fatalf("theme show --css: %v", err)
	}
	if !strings.Contains(output, ":root {") || !strings.Contains(output, "#f9f9f8") {
		t.Errorf("expected dark variables, got: %s", output)
	}
}

func TestBrowseCommand(t *testing.T) {
	env := newCLIEnv(t)

	output, err := env.run(t, "/toast\nq\n", "posts", "browse")
	if err != nil {
		t.Fatalf("browse error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "carol") {
		t.Errorf("expected search result in output, got: %s", output)
	}
	if !strings.Contains(output, "Commands:") {
		t.Errorf("expected help in output, got: %s", output)
	}
}

type staticFetcher struct{}

func (staticFetcher) ListPosts(ctx context.Context, q model.PostsQuery) (*model.PostsPage, error) {
	return &model.PostsPage{Total: 25, Page: q.Page, Limit: q.Limit}, nil
}

func TestBrowseCommandParsing(t *testing.T) {
	ctrl := posts.NewController(staticFetcher{}, posts.Options{})
	defer ctrl.Close()
	if err := ctrl.Start(); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line    string
		quit    bool
		wantErr bool
	}{
		{"q", true, false},
		{"n", false, false},
		{"g 3", false, false},
		{"g 4", false, true},
		{"g x", false, true},
		{"g", false, true},
		{"s rating", false, false},
		{"s title", false, true},
		{"p", false, false},
		{"/cake", false, false},
		{"zzz", false, true},
	}
	for _, tt := range tests {
		quit, err := browseCommand(ctrl, tt.line)
		if quit != tt.quit {
			t.Errorf("%q: quit = %v, want %v", tt.line, quit, tt.quit)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.line, err, tt.wantErr)
		}
		if err := ctrl.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if q := ctrl.Query(); q.Search != "cake" || q.Sort != model.SortRating || q.Page != 1 {
		t.Errorf("final query = %+v", q)
	}
}
