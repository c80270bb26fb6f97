// Package posts implements the posts list state: the query being shown,
// the debounced search box, and the loading, error and empty flags derived
// from fetch outcomes.
package posts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/suckyear/suckyear/internal/logging"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// DefaultDebounce is the quiet period before typed search text is committed.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by intents on a closed controller.
var ErrClosed = errors.New("posts controller closed")

// Fetcher loads one page of posts. *api.Client implements it.
type Fetcher interface {
	ListPosts(ctx context.Context, q model.PostsQuery) (*model.PostsPage, error)
}

var _ Fetcher = (*api.Client)(nil)

// Observer is told about fetch outcomes.
type Observer interface {
	FetchDone(outcome string, d time.Duration)
	StaleDiscarded()
}

// Fetch outcomes reported to the Observer.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type nopObserver struct{}

func (nopObserver) FetchDone(string, time.Duration) {}
func (nopObserver) StaleDiscarded() {}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Limit    int
	Debounce time.Duration
	Logger   *slog.Logger
	Observer Observer

	after afterFunc
}

// Controller owns the posts list state. Every commit of a new query issues
// exactly one fetch; a response is applied only if no newer fetch has been
// issued since, and the superseded fetch is cancelled.
//
// All methods are safe for concurrent use.
type Controller struct {
	fetcher   Fetcher
	logger    *slog.Logger
	observer  Observer
	debouncer *Debouncer

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	query      model.PostsQuery
	searchText string
	state      State
	gen        uint64
	cancel     context.CancelFunc
	fetched    bool
	started    bool
	closed     bool
	inflight   int
	idle       chan struct{}
	subs       map[chan Snapshot]struct{}
}

// NewController creates a controller positioned on the default query. No
// fetch happens until Start.
func NewController(fetcher Fetcher, opts Options) *Controller {
	logger := logging.OrDiscard(opts.Logger)
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	query := model.DefaultPostsQuery()
	if opts.Limit > 0 {
		query.Limit = opts.Limit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:    fetcher,
		logger:     logger.With("component", "posts"),
		observer:   observer,
		debouncer:  newDebouncer(debounce, opts.after),
		baseCtx:    ctx,
		baseCancel: cancel,
		query:      query,
		state:      State{Loading: true},
		subs:       make(map[chan Snapshot]struct{}),
	}
}

// Start issues the first fetch. Later calls do nothing.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return nil
	}
	c.started = true
	c.commitLocked(c.query)
	return nil
}

// SetSearchText updates the search box. The text is committed to the query,
// back on page 1, once no further call arrives within the debounce period.
func (c *Controller) SetSearchText(text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.searchText = text
	c.publishLocked()
	c.mu.Unlock()

	c.debouncer.Schedule(func() { c.settleSearch(text) })
	return nil
}

func (c *Controller) settleSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.logger.Debug("search settled", "search", text)
	c.commitLocked(c.query.WithSearch(text))
}

// CommitSearch commits text immediately, dropping any pending debounced
// commit.
func (c *Controller) CommitSearch(text string) error {
	c.debouncer.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.searchText = text
	c.started = true
	c.commitLocked(c.query.WithSearch(text))
	return nil
}

// SetSort orders the list by field, keeping page, search and limit.
func (c *Controller) SetSort(field model.SortField) error {
	if !field.Valid() {
		return model.NewValidationError("invalid sort", model.FieldError{Field: "sort", Message: string(field)})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.started = true
	c.commitLocked(c.query.WithSort(field))
	return nil
}

// SetPage moves to page n. It returns false without fetching when n is
// before the first page or, once a total is known, past the last one.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || n < 1 {
		return false
	}
	if c.fetched && n > model.PageCount(c.state.Total, c.query.Limit) {
		return false
	}
	c.started = true
	c.commitLocked(c.query.WithPage(n))
	return true
}

// Refresh fetches the current query again.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.started = true
	c.commitLocked(c.query)
	return nil
}

// commitLocked replaces the query and fetches it. c.mu must be held.
func (c *Controller) commitLocked(q model.PostsQuery) {
	c.query = q
	c.gen++
	gen := c.gen

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel

	c.state = State{
		Posts:     c.state.Posts,
		Total:     c.state.Total,
		Empty:     c.state.Empty,
		Searching: q.Search != "",
		Loading:   q.Search == "",
	}

	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++

	c.logger.Debug("fetch started",
		"generation", gen,
		"page", q.Page,
		"search", q.Search,
		"sort", q.Sort,
	)
	go c.fetch(ctx, cancel, gen, q)
	c.publishLocked()
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, q model.PostsQuery) {
	defer cancel()
	start := time.Now()
	page, err := c.fetcher.ListPosts(ctx, q)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.doneLocked()

	if c.closed || gen != c.gen {
		c.logger.Debug("stale response discarded", "generation", gen, "latest", c.gen)
		c.observer.StaleDiscarded()
		return
	}
	c.cancel = nil

	if err != nil {
		c.logger.Warn("fetch failed", "generation", gen, "error", err)
		c.state = State{
			Posts: c.state.Posts,
			Total: c.state.Total,
			Empty: c.state.Empty,
			Error: LoadErrorPrefix + Localize(err),
		}
		c.observer.FetchDone(OutcomeError, elapsed)
		c.publishLocked()
		return
	}

	c.fetched = true
	next := State{Posts: page.Items, Total: page.Total, Empty: page.Total == 0}
	if next.Empty {
		next.Posts = nil
	}
	c.state = next
	c.logger.Debug("fetch done", "generation", gen, "total", page.Total, "items", len(page.Items), "duration", elapsed)
	c.observer.FetchDone(OutcomeOK, elapsed)
	c.publishLocked()
}

func (c *Controller) doneLocked() {
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
}

// Wait blocks until no fetch is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.inflight == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Query returns the committed query.
func (c *Controller) Query() model.PostsQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// SearchText returns the search box content, committed or not.
func (c *Controller) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchText
}

// State returns the derived state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the dominant part of the list area.
func (c *Controller) View() View {
	return c.State().View()
}

// Pagination returns the pager for the current total and page.
func (c *Controller) Pagination() model.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.NewPagination(c.state.Total, c.query.Limit, c.query.Page)
}

// Snapshot returns a consistent copy of the controller's state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: c.gen,
		Query:      c.query,
		SearchText: c.searchText,
		State:      c.state,
		View:       c.state.View(),
		Pagination: model.NewPagination(c.state.Total, c.query.Limit, c.query.Page),
	}
}

// Subscribe returns a channel that receives the current snapshot and then
// one after every change. Slow readers only see the latest snapshot. The
// channel is closed by the returned cancel function or by Close.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close cancels the pending search commit and any fetch in flight and
// closes subscriber channels. Results arriving afterwards are dropped.
func (c *Controller) Close() {
	c.debouncer.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.baseCancel()
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}
