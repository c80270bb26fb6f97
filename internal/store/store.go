// Package store persists client preferences and browser sessions.
package store

import (
	"context"
	"time"

	"github.com/suckyear/suckyear/pkg/model"
)

// Store defines the persistence layer for preferences and sessions.
//
// Getters return nil, nil when the row does not exist.
type Store interface {
	// Key-value preferences, partitioned by scope.
	GetValue(ctx context.Context, scope, key string) (*string, error)
	SetValue(ctx context.Context, scope, key, value string) error
	DeleteValue(ctx context.Context, scope, key string) error
	DeleteScope(ctx context.Context, scope string) error

	// Browser sessions
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	TouchSession(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
