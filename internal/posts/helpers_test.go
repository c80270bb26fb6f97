package posts

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/suckyear/suckyear/pkg/model"
)

// manualClock fires scheduled functions only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) after(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire runs every timer that is neither stopped nor fired and returns how
// many ran.
func (c *manualClock) fire() int {
	c.mu.Lock()
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeFetcher records queries and answers through respond.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []model.PostsQuery
	respond func(ctx context.Context, call int, q model.PostsQuery) (*model.PostsPage, error)
}

func (f *fakeFetcher) ListPosts(ctx context.Context, q model.PostsQuery) (*model.PostsPage, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, q)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return pageOf(q, 0), nil
	}
	return respond(ctx, call, q)
}

func (f *fakeFetcher) queries() []model.PostsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PostsQuery(nil), f.calls...)
}

// pageOf builds the page q would get from a backend holding total posts.
func pageOf(q model.PostsQuery, total int) *model.PostsPage {
	page := &model.PostsPage{Total: total, Page: q.Page, Limit: q.Limit}
	first := (q.Page - 1) * q.Limit
	for i := first; i < total && i < first+q.Limit; i++ {
		page.Items = append(page.Items, model.PostSummary{
			ID:     model.Ref(fmt.Sprint(i + 1)),
			Author: "author",
			Text:   fmt.Sprintf("post %d %s", i+1, q.Search),
		})
	}
	return page
}

func totalOf(total int) func(context.Context, int, model.PostsQuery) (*model.PostsPage, error) {
	return func(_ context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		return pageOf(q, total), nil
	}
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	stale    int
}

func (o *countingObserver) FetchDone(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func (o *countingObserver) StaleDiscarded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale++
}

func (o *countingObserver) counts() (ok, failed, stale int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[OutcomeOK], o.outcomes[OutcomeError], o.stale
}

func newTestController(t *testing.T, f *fakeFetcher) (*Controller, *manualClock, *countingObserver) {
	t.Helper()
	clock := &manualClock{}
	obs := &countingObserver{}
	c := NewController(f, Options{Observer: obs, after: clock.after})
	t.Cleanup(c.Close)
	return c, clock, obs
}

func wait(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
