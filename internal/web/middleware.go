package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// Context keys for request-scoped values.
type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	sessionContextKey   contextKey = "session"
)

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// SessionFromContext retrieves the browser session from the request context.
// The session may not be stored yet.
func SessionFromContext(ctx context.Context) *model.Session {
	if bs, ok := ctx.Value(sessionContextKey).(*browserSession); ok {
		return bs.sess
	}
	return nil
}

// requestID generates a request ID in the format "req_" + 8 hex chars.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// requestIDMiddleware generates a unique request ID, stores it in the context,
// and sets the X-Request-ID response header.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID()
		ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests at INFO level and counts them.
func loggingMiddleware(logger *slog.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.ObserveRequest(r.Method, route, sw.status, time.Since(start))

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
				"request_id", RequestIDFromContext(r.Context()),
			)
		})
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets event streams flush through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// browserSession is the session of one request. A new session is stored,
// and its cookie set, only once the request needs it to outlive the request:
// a posts list route or a preference write. Requests that need neither
// leave no trace.
type browserSession struct {
	sess     *model.Session
	sessions *SessionManager
	w        http.ResponseWriter
	secure   bool

	mu     sync.Mutex
	stored bool
}

// persist stores the session and sets its cookie. A session that is still
// on its first-visit lifetime is extended to the full TTL when full is set.
func (b *browserSession) persist(ctx context.Context, full bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.stored:
		if full {
			b.sess.ExpiresAt = time.Now().Add(b.sessions.ttl)
		}
		if err := b.sessions.SaveSession(ctx, b.sess); err != nil {
			return err
		}
		b.stored = true
	case full && b.sessions.needsExtend(b.sess):
		if err := b.sessions.Extend(ctx, b.sess); err != nil {
			return err
		}
	default:
		return nil
	}
	SetSessionCookie(b.w, b.sess, b.secure)
	return nil
}

// sessionKV stores the browser session before the first preference write.
type sessionKV struct {
	prefs.KV
	session *browserSession
}

func (kv sessionKV) SetValue(ctx context.Context, scope, key, value string) error {
	if err := kv.session.persist(ctx, true); err != nil {
		return err
	}
	return kv.KV.SetValue(ctx, scope, key, value)
}

// SessionMiddleware gives every request a browser session and puts the
// session's loaded preferences into the request context. Sessions that
// come back are extended; new ones stay in memory until persisted.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := s.sessions.GetSessionFromRequest(r)
		if err != nil {
			s.logger.Error("session lookup failed", "error", err)
		}
		bs := &browserSession{sessions: s.sessions, w: w, secure: s.cfg.SecureCookies}
		if sess == nil {
			sess, err = s.sessions.NewSession()
			if err != nil {
				s.logger.Error("create session failed", "error", err)
				s.renderError(w, r, http.StatusInternalServerError, "Не удалось создать сессию")
				return
			}
		} else {
			bs.stored = true
			if s.sessions.needsExtend(sess) {
				if err := s.sessions.Extend(ctx, sess); err != nil {
					s.logger.Warn("extend session failed", "error", err)
				} else {
					SetSessionCookie(w, sess, s.cfg.SecureCookies)
				}
			}
		}
		bs.sess = sess

		p := prefs.New(sessionKV{KV: s.store, session: bs}, sess.ID)
		if err := p.Load(ctx); err != nil {
			s.logger.Error("load preferences failed", "session", sess.ID, "error", err)
		}

		ctx = context.WithValue(ctx, sessionContextKey, bs)
		ctx = prefs.NewContext(ctx, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// persistSession stores the request's browser session if it is new and
// returns it.
func persistSession(r *http.Request) (*model.Session, error) {
	bs, ok := r.Context().Value(sessionContextKey).(*browserSession)
	if !ok {
		return nil, errors.New("no browser session")
	}
	if err := bs.persist(r.Context(), false); err != nil {
		return bs.sess, err
	}
	return bs.sess, nil
}

// AuthMiddleware requires a stored, unexpired access token. Without one the
// browser is sent to the login page. Must be used after SessionMiddleware.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := prefs.FromContext(r.Context())
		if p == nil || p.Token() == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if info, err := api.ParseAccessToken(p.Token()); err == nil && info.Expired() {
			if err := p.ClearToken(r.Context()); err != nil {
				s.logger.Error("clear expired token failed", "error", err)
			}
			http.Redirect(w, r, "/login?error="+url.QueryEscape(MsgSessionExpired), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
