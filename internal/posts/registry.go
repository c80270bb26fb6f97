package posts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/suckyear/suckyear/internal/logging"
)

// DefaultCapacity is the number of controllers a Registry keeps when no
// capacity is given.
const DefaultCapacity = 1000

// Registry keeps one controller per owner, typically a browser session.
// It holds at most its capacity; making room closes the least recently used
// controller.
type Registry struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries *simplelru.LRU[string, *registryEntry]
	evicted []*Controller // closed once mu is released
}

type registryEntry struct {
	ctrl     *Controller
	lastUsed time.Time
}

// NewRegistry creates an empty registry holding up to capacity controllers.
// A non-positive capacity selects DefaultCapacity. Controllers it creates
// share opts.
func NewRegistry(fetcher Fetcher, capacity int, opts Options) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Registry{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger).With("component", "posts-registry"),
		now:     time.Now,
	}
	// NewLRU fails only for a non-positive size.
	r.entries, _ = simplelru.NewLRU[string, *registryEntry](capacity, r.onEvict)
	return r
}

// onEvict runs with mu held.
func (r *Registry) onEvict(id string, e *registryEntry) {
	r.evicted = append(r.evicted, e.ctrl)
}

// unlock releases mu and closes the controllers evicted while it was held.
func (r *Registry) unlock() int {
	evicted := r.evicted
	r.evicted = nil
	r.mu.Unlock()

	for _, ctrl := range evicted {
		ctrl.Close()
	}
	return len(evicted)
}

// Get returns the started controller for id, creating it on first use.
func (r *Registry) Get(id string) *Controller {
	r.mu.Lock()
	defer r.unlock()

	if e, ok := r.entries.Get(id); ok {
		e.lastUsed = r.now()
		return e.ctrl
	}

	ctrl := NewController(r.fetcher, r.opts)
	if r.entries.Add(id, &registryEntry{ctrl: ctrl, lastUsed: r.now()}) {
		r.logger.Debug("registry full, least recently used controller closed")
	}
	r.logger.Debug("controller created", "owner", id)
	_ = ctrl.Start()
	return ctrl
}

// Touch marks the controller for id as in use without creating it.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.unlock()
	if e, ok := r.entries.Get(id); ok {
		e.lastUsed = r.now()
	}
}

// Remove closes and forgets the controller for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	r.entries.Remove(id)
	r.unlock()
}

// EvictIdle closes controllers unused for longer than maxIdle and returns
// how many were removed.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	for _, id := range r.entries.Keys() {
		if e, ok := r.entries.Peek(id); ok && e.lastUsed.Before(cutoff) {
			r.entries.Remove(id)
		}
	}
	n := r.unlock()

	if n > 0 {
		r.logger.Debug("idle controllers evicted", "count", n)
	}
	return n
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Len()
}

// Close closes every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	r.entries.Purge()
	r.unlock()
}
