// Package web serves the browser client: the posts list with live search,
// sort and paging, the auth and profile pages, post creation and the theme
// switch. Each browser session gets its own posts list controller.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/suckyear/suckyear/internal/logging"
	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/internal/store"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// Backend is the part of the SuckYear API the web client calls.
// *api.Client implements it.
type Backend interface {
	posts.Fetcher
	GetPost(ctx context.Context, id string) (*model.PostSummary, error)
	CreatePost(ctx context.Context, token string, p model.NewPost) (*model.PostSummary, error)
	Login(ctx context.Context, creds model.LoginCredentials) (*model.LoginResult, error)
	Register(ctx context.Context, r model.RegisterRequest) (*model.User, error)
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, p model.Profile) (*model.User, error)
}

var _ Backend = (*api.Client)(nil)

// DefaultHeartbeat is the interval of keep-alive comments on event streams.
const DefaultHeartbeat = 15 * time.Second

// Config holds web server settings.
type Config struct {
	SessionTTL    time.Duration
	IdleTimeout   time.Duration // evict list controllers idle this long
	CleanupPeriod time.Duration
	SecureCookies bool // Use secure cookies for HTTPS
	// MaxControllers bounds the posts list controllers held in memory.
	// Zero selects posts.DefaultCapacity.
	MaxControllers int
	Limit         int
	Debounce      time.Duration
	Heartbeat     time.Duration
}

// Server is the web client.
type Server struct {
	router    chi.Router
	backend   Backend
	store     store.Store
	sessions  *SessionManager
	lists     *posts.Registry
	metrics   *Metrics
	logger    *slog.Logger
	cfg       Config
	startTime time.Time
}

// New creates a Server with all routes registered.
func New(cfg Config, backend Backend, st store.Store, logger *slog.Logger) *Server {
	logger = logging.OrDiscard(logger)
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}

	metrics := NewMetrics()
	s := &Server{
		router:   chi.NewRouter(),
		backend:  backend,
		store:    st,
		sessions: NewSessionManager(st, cfg.SessionTTL),
		lists: posts.NewRegistry(backend, cfg.MaxControllers, posts.Options{
			Limit:    cfg.Limit,
			Debounce: cfg.Debounce,
			Logger:   logger,
			Observer: metrics,
		}),
		metrics:   metrics,
		logger:    logger.With("component", "web"),
		cfg:       cfg,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Close stops every posts list controller.
func (s *Server) Close() {
	s.lists.Close()
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger, s.metrics))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.SessionMiddleware)

		r.Get("/theme.css", s.HandleThemeCSS)
		r.Post("/theme", s.HandleThemeToggle)

		r.Get("/", s.HandlePosts)
		r.Get("/posts/list", s.HandlePostsList)
		r.Get("/posts/events", s.HandlePostsEvents)
		r.Post("/posts/search", s.HandleSearch)
		r.Post("/posts/sort", s.HandleSort)
		r.Post("/posts/page", s.HandlePage)

		r.Get("/login", s.HandleLogin)
		r.Post("/login", s.HandleLoginPost)
		r.Get("/register", s.HandleRegister)
		r.Post("/register", s.HandleRegisterPost)
		r.Get("/logout", s.HandleLogout)
		r.Post("/logout", s.HandleLogout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/profile", s.HandleProfile)
			r.Post("/profile", s.HandleProfilePost)
			r.Get("/posts/new", s.HandleNewPost)
			r.Post("/posts/new", s.HandleNewPostPost)
		})

		r.Get("/posts/{id}", s.HandlePost)
		r.NotFound(s.handleNotFound)
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Controllers int    `json:"controllers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Controllers: s.lists.Len(),
	})
}
