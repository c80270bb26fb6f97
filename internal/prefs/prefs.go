// Package prefs holds the small amount of client state that outlives a
// single page or command: the access token and the dark-theme flag.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys under which preferences are stored.
const (
	KeyToken = "token"
	KeyTheme = "theme"
)

// LocalScope is the scope used by the command-line client.
const LocalScope = "local"

// KV is the subset of the store that preferences need.
type KV interface {
	GetValue(ctx context.Context, scope, key string) (*string, error)
	SetValue(ctx context.Context, scope, key, value string) error
	DeleteValue(ctx context.Context, scope, key string) error
}

// Prefs is the preference state of one owner. Reads are served from memory
// after Load; writes go through to the store before memory is updated.
type Prefs struct {
	kv    KV
	scope string

	mu     sync.RWMutex
	token  string
	dark   bool
	loaded bool
}

// New creates preferences for scope. Call Load before reading.
func New(kv KV, scope string) *Prefs {
	return &Prefs{kv: kv, scope: scope}
}

// Scope returns the owner the preferences belong to.
func (p *Prefs) Scope() string {
	return p.scope
}

// Load reads the stored values. A theme value that is not a JSON boolean
// reads as light.
func (p *Prefs) Load(ctx context.Context) error {
	tok, err := p.kv.GetValue(ctx, p.scope, KeyToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	theme, err := p.kv.GetValue(ctx, p.scope, KeyTheme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}

	var dark bool
	if theme != nil {
		if err := json.Unmarshal([]byte(*theme), &dark); err != nil {
			dark = false
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	if tok != nil {
		p.token = *tok
	}
	p.dark = dark
	p.loaded = true
	return nil
}

// Loaded reports whether Load has completed.
func (p *Prefs) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// Token returns the stored access token, or "".
func (p *Prefs) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Dark reports whether the dark theme is selected.
func (p *Prefs) Dark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dark
}

// SetToken stores a new access token.
func (p *Prefs) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return p.ClearToken(ctx)
	}
	if err := p.kv.SetValue(ctx, p.scope, KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return nil
}

// ClearToken forgets the access token.
func (p *Prefs) ClearToken(ctx context.Context) error {
	if err := p.kv.DeleteValue(ctx, p.scope, KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
	return nil
}

// SetDark stores the theme flag.
func (p *Prefs) SetDark(ctx context.Context, dark bool) error {
	data, _ := json.Marshal(dark)
	if err := p.kv.SetValue(ctx, p.scope, KeyTheme, string(data)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	p.mu.Lock()
	p.dark = dark
	p.mu.Unlock()
	return nil
}

// ToggleTheme flips the theme flag and returns the new value.
func (p *Prefs) ToggleTheme(ctx context.Context) (bool, error) {
	// Serialize toggles so two concurrent flips do not collapse into one.
	p.mu.Lock()
	next := !p.dark
	data, _ := json.Marshal(next)
	if err := p.kv.SetValue(ctx, p.scope, KeyTheme, string(data)); err != nil {
		p.mu.Unlock()
		return !next, fmt.Errorf("save theme: %w", err)
	}
	p.dark = next
	p.mu.Unlock()
	return next, nil
}

type contextKey struct{}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Prefs) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the preferences carried by ctx, or nil.
func FromContext(ctx context.Context) *Prefs {
	p, _ := ctx.Value(contextKey{}).(*Prefs)
	return p
}
