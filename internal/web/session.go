package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/suckyear/suckyear/internal/store"
	"github.com/suckyear/suckyear/pkg/model"
)

const (
	// SessionCookieName is the name of the browser session cookie.
	SessionCookieName = "suckyear_session"
	// SessionDuration is the default session lifetime.
	SessionDuration = 30 * 24 * time.Hour
	// FirstVisitDuration is the lifetime of a session nobody has come back
	// to yet. The next request with the cookie extends it to the full TTL.
	FirstVisitDuration = time.Hour
)

// SessionManager handles browser session creation, lookup and cleanup.
// A session exists before login: it is the owner of the browser's theme
// and token preferences.
type SessionManager struct {
	store store.Store
	ttl   time.Duration
}

// NewSessionManager creates a session manager. A non-positive ttl selects
// SessionDuration.
func NewSessionManager(st store.Store, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &SessionManager{store: st, ttl: ttl}
}

// NewSession returns an anonymous session that is not stored yet. It
// expires after FirstVisitDuration, or the TTL when that is shorter.
func (sm *SessionManager) NewSession() (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	return &model.Session{
		ID:        sessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(min(sm.ttl, FirstVisitDuration)),
	}, nil
}

// SaveSession stores a session made by NewSession.
func (sm *SessionManager) SaveSession(ctx context.Context, sess *model.Session) error {
	if err := sm.store.CreateSession(ctx, sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// CreateSession creates and stores a new anonymous session.
func (sm *SessionManager) CreateSession(ctx context.Context) (*model.Session, error) {
	sess, err := sm.NewSession()
	if err != nil {
		return nil, err
	}
	if err := sm.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// needsExtend reports whether less than half the TTL is left.
func (sm *SessionManager) needsExtend(sess *model.Session) bool {
	return time.Until(sess.ExpiresAt) < sm.ttl/2
}

// GetSession retrieves a session by ID from the store.
// Returns nil if the session doesn't exist or has expired.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := sm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	if sess.IsExpired() {
		_ = sm.store.DeleteSession(ctx, sessionID)
		return nil, nil
	}
	return sess, nil
}

// Extend pushes the session expiry a full TTL into the future.
func (sm *SessionManager) Extend(ctx context.Context, sess *model.Session) error {
	sess.ExpiresAt = time.Now().Add(sm.ttl)
	return sm.store.TouchSession(ctx, sess.ID, sess.ExpiresAt)
}

// DeleteSession removes a session and its preferences from the store.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	return sm.store.DeleteSession(ctx, sessionID)
}

// CleanupExpiredSessions removes all expired sessions from the store.
func (sm *SessionManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return sm.store.DeleteExpiredSessions(ctx)
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil // No cookie, no session
	}
	return sm.GetSession(r.Context(), cookie.Value)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
