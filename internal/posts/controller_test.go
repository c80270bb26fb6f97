package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

func TestStart_FirstPageOfMany(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(25)}
	c, _, obs := newTestController(t, f)

	assert.Equal(t, ViewLoading, c.View(), "loading before the first fetch")
	require.NoError(t, c.Start())
	wait(t, c)

	require.Len(t, f.queries(), 1)
	assert.Equal(t, model.DefaultPostsQuery(), f.queries()[0])

	st := c.State()
	assert.Len(t, st.Posts, 10)
	assert.Equal(t, 25, st.Total)
	assert.False(t, st.Empty)
	assert.Equal(t, ViewList, c.View())

	p := c.Pagination()
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, []int{1, 2, 3}, p.Numbers)
	assert.True(t, p.PrevDisabled)
	assert.False(t, p.NextDisabled)

	ok, failed, stale := obs.counts()
	assert.Equal(t, 1, ok)
	assert.Zero(t, failed)
	assert.Zero(t, stale)

	// Start is idempotent.
	require.NoError(t, c.Start())
	wait(t, c)
	assert.Len(t, f.queries(), 1)
}

func TestEmptyResult(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(0)}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)

	st := c.State()
	assert.True(t, st.Empty)
	assert.Empty(t, st.Posts)
	assert.Equal(t, ViewEmpty, c.View())
	assert.Equal(t, 0, c.Pagination().Pages)
}

func TestEmptyResultClearsPreviousPosts(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		if q.Search == "zzz" {
			return pageOf(q, 0), nil
		}
		return pageOf(q, 5), nil
	}}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)
	require.Len(t, c.State().Posts, 5)

	require.NoError(t, c.CommitSearch("zzz"))
	wait(t, c)
	assert.Empty(t, c.State().Posts)
	assert.Equal(t, ViewEmpty, c.View())
}

func TestDebouncedSearch_LastValueResetsPage(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(25)}
	c, clock, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)
	require.True(t, c.SetPage(2))
	wait(t, c)
	assert.Equal(t, 2, c.Query().Page)

	for _, text := range []string{"f", "fa", "fai", "fail"} {
		require.NoError(t, c.SetSearchText(text))
	}
	assert.Equal(t, "fail", c.SearchText())
	assert.Equal(t, "", c.Query().Search, "nothing committed before the quiet period")
	assert.Len(t, f.queries(), 2)
	assert.Equal(t, 1, clock.pending())

	assert.Equal(t, 1, clock.fire())
	wait(t, c)

	qs := f.queries()
	require.Len(t, qs, 3, "rapid keystrokes produce exactly one fetch")
	assert.Equal(t, "fail", qs[2].Search)
	assert.Equal(t, 1, qs[2].Page)
	assert.Equal(t, model.SortCreatedAt, qs[2].Sort)
	assert.Equal(t, 10, qs[2].Limit)
}

func TestDebouncedSearch_SettleResetsPage(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(30)}
	c, clock, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)
	require.True(t, c.SetPage(3))
	wait(t, c)

	// Typing a character and deleting it still settles a commit.
	require.NoError(t, c.SetSearchText("a"))
	require.NoError(t, c.SetSearchText(""))
	assert.Equal(t, 1, clock.fire())
	wait(t, c)

	qs := f.queries()
	require.Len(t, qs, 3)
	assert.Equal(t, "", qs[2].Search)
	assert.Equal(t, 1, qs[2].Page)
	assert.Equal(t, 1, c.Query().Page)
}

func TestSearchingFlag(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, call int, q model.PostsQuery) (*model.PostsPage, error) {
		if call == 1 {
			<-release
		}
		return pageOf(q, 2), nil
	}}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)

	require.NoError(t, c.CommitSearch("go"))
	st := c.State()
	assert.True(t, st.Searching)
	assert.False(t, st.Loading)
	assert.Equal(t, ViewSearching, c.View())
	close(release)
	wait(t, c)
	assert.Equal(t, ViewList, c.View())
}

func TestSetSort_PreservesPageAndSearch(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(25)}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)
	require.NoError(t, c.CommitSearch("x"))
	wait(t, c)
	require.True(t, c.SetPage(3))
	wait(t, c)

	require.NoError(t, c.SetSort(model.SortRating))
	wait(t, c)

	qs := f.queries()
	last := qs[len(qs)-1]
	prev := qs[len(qs)-2]
	assert.Equal(t, model.SortRating, last.Sort)
	assert.Equal(t, prev.Page, last.Page, "sort does not reset page")
	assert.Equal(t, prev.Search, last.Search)
	assert.Equal(t, prev.Limit, last.Limit)
	assert.Equal(t, prev.Order, last.Order)

	assert.Error(t, c.SetSort("title"))
}

func TestSetPage_Bounds(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(25)}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)

	assert.False(t, c.SetPage(0))
	assert.False(t, c.SetPage(4))
	assert.Len(t, f.queries(), 1, "out-of-range pages never reach the backend")

	assert.True(t, c.SetPage(3))
	wait(t, c)
	p := c.Pagination()
	assert.False(t, p.PrevDisabled)
	assert.True(t, p.NextDisabled)
}

func TestFetchError_KeepsPostsAndLocalizes(t *testing.T) {
	f := &fakeFetcher{respond: func(_ context.Context, call int, q model.PostsQuery) (*model.PostsPage, error) {
		if call == 0 {
			return pageOf(q, 4), nil
		}
		return nil, &api.Error{Message: api.MsgNotFound, Status: 404}
	}}
	c, _, obs := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)
	require.NoError(t, c.Refresh())
	wait(t, c)

	st := c.State()
	assert.Equal(t, "Ошибка при загрузке каталога: Данные куда-то делись, уже ищем", st.Error)
	assert.Len(t, st.Posts, 4, "previous list is left untouched")
	assert.Equal(t, ViewError, c.View())

	_, failed, _ := obs.counts()
	assert.Equal(t, 1, failed)

	// The next fetch clears the error when it starts.
	f.mu.Lock()
	f.respond = totalOf(4)
	f.mu.Unlock()
	require.NoError(t, c.Refresh())
	assert.Empty(t, c.State().Error)
	wait(t, c)
	assert.Equal(t, ViewList, c.View())
}

func TestStaleResponseDiscarded(t *testing.T) {
	releaseFirst := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		if q.Page == 2 {
			// Ignores cancellation so its late answer has to be filtered.
			<-releaseFirst
			return &model.PostsPage{Items: []model.PostSummary{{ID: "stale"}}, Total: 1}, nil
		}
		return pageOf(q, 25), nil
	}}
	c, _, obs := newTestController(t, f)
	require.NoError(t, c.Start())
	wait(t, c)

	require.True(t, c.SetPage(2))
	require.True(t, c.SetPage(3))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Eventually(t, func() bool { return c.View() == ViewList }, 5*time.Second, 5*time.Millisecond)

	close(releaseFirst)
	require.NoError(t, c.Wait(ctx))

	st := c.State()
	assert.Equal(t, 25, st.Total)
	require.NotEmpty(t, st.Posts)
	assert.Equal(t, model.Ref("21"), st.Posts[0].ID)
	assert.Equal(t, 3, c.Query().Page)

	_, _, stale := obs.counts()
	assert.Equal(t, 1, stale)
}

func TestSupersededFetchIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		if q.Sort == model.SortCreatedAt {
			<-ctx.Done()
			close(cancelled)
			return nil, &api.Error{Message: api.MsgCanceled, Err: ctx.Err()}
		}
		return pageOf(q, 1), nil
	}}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())
	require.NoError(t, c.SetSort(model.SortRating))

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("first fetch was not cancelled")
	}
	wait(t, c)
	assert.Empty(t, c.State().Error, "a cancelled fetch never surfaces as an error")
	assert.Equal(t, ViewList, c.View())
}

func TestSubscribe(t *testing.T) {
	f := &fakeFetcher{respond: totalOf(12)}
	c, _, _ := newTestController(t, f)

	ch, unsubscribe := c.Subscribe()
	first := <-ch
	assert.Equal(t, ViewLoading, first.View)

	require.NoError(t, c.Start())
	wait(t, c)

	var last Snapshot
	require.Eventually(t, func() bool {
		select {
		case s := <-ch:
			last = s
		default:
		}
		return last.View == ViewList
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 12, last.State.Total)
	assert.Equal(t, 2, last.Pagination.Pages)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestClose(t *testing.T) {
	started := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c, clock, obs := newTestController(t, f)
	ch, _ := c.Subscribe()
	<-ch

	require.NoError(t, c.Start())
	<-started
	require.NoError(t, c.SetSearchText("late"))
	c.Close()
	c.Close()

	wait(t, c)
	assert.Zero(t, clock.pending(), "pending search commit dropped")
	assert.Len(t, f.queries(), 1)
	_, _, stale := obs.counts()
	assert.Equal(t, 1, stale)

	for range ch {
	}
	assert.ErrorIs(t, c.Start(), ErrClosed)
	assert.ErrorIs(t, c.SetSearchText("x"), ErrClosed)
	assert.ErrorIs(t, c.SetSort(model.SortRating), ErrClosed)
	assert.False(t, c.SetPage(1))

	sub, _ := c.Subscribe()
	_, open := <-sub
	assert.False(t, open)
}

func TestWait_RespectsContext(t *testing.T) {
	block := make(chan struct{})
	f := &fakeFetcher{respond: func(ctx context.Context, _ int, q model.PostsQuery) (*model.PostsPage, error) {
		<-block
		return pageOf(q, 1), nil
	}}
	c, _, _ := newTestController(t, f)
	require.NoError(t, c.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
	close(block)
	wait(t, c)
}

func TestLimitOption(t *testing.T) {
	f := &fakeFetcher{}
	c := NewController(f, Options{Limit: 5})
	defer c.Close()
	assert.Equal(t, 5, c.Query().Limit)
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", &api.Error{Message: api.MsgNetwork}, "Интернет пропал, проверь подключение"},
		{"timeout", &api.Error{Message: api.MsgTimeout}, "Сервер тормозит, попробуй позже"},
		{"not found", &api.Error{Message: api.MsgNotFound}, "Данные куда-то делись, уже ищем"},
		{"server", &api.Error{Message: api.MsgServer}, "Сервер прилёг отдохнуть, скоро встанет"},
		{"raw", &api.Error{Message: "Bad sort"}, "Bad sort"},
		{"empty", &api.Error{}, "Неизвестная ошибка"},
		{"wrapped", errors.Join(errors.New("ctx"), &api.Error{Message: api.MsgServer}), "Сервер прилёг отдохнуть, скоро встанет"},
		{"foreign", errors.New("boom"), "Нет связи с сервером"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Localize(tt.err))
		})
	}
}

func TestStateView_Precedence(t *testing.T) {
	tests := []struct {
		state State
		want  View
	}{
		{State{Searching: true, Loading: true, Error: "e", Empty: true}, ViewSearching},
		{State{Loading: true, Error: "e", Empty: true}, ViewLoading},
		{State{Error: "e", Empty: true}, ViewError},
		{State{Empty: true}, ViewEmpty},
		{State{Posts: []model.PostSummary{{ID: "1"}}}, ViewList},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.View(), tt.want.String())
	}
}
