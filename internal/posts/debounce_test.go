package posts

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_SinglePendingSlot(t *testing.T) {
	clock := &manualClock{}
	d := newDebouncer(500*time.Millisecond, clock.after)

	var got atomic.Value
	for _, v := range []string{"a", "b", "c"} {
		v := v
		d.Schedule(func() { got.Store(v) })
	}
	assert.True(t, d.Pending())
	assert.Equal(t, 1, clock.pending())

	assert.Equal(t, 1, clock.fire())
	assert.Equal(t, "c", got.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := &manualClock{}
	d := newDebouncer(time.Second, clock.after)

	assert.False(t, d.Cancel())
	var ran atomic.Bool
	d.Schedule(func() { ran.Store(true) })
	assert.True(t, d.Cancel())
	assert.Zero(t, clock.fire())
	assert.False(t, ran.Load())
}

// A timer whose stop call lost the race against firing is filtered by the
// sequence check.
func TestDebouncer_LateFireIgnored(t *testing.T) {
	var fired []func()
	after := func(_ time.Duration, f func()) func() bool {
		fired = append(fired, f)
		return func() bool { return false }
	}
	d := newDebouncer(time.Second, after)

	var calls atomic.Int32
	d.Schedule(func() { calls.Add(1) })
	d.Schedule(func() { calls.Add(10) })
	for _, f := range fired {
		f()
	}
	assert.Equal(t, int32(10), calls.Load())
}

func TestDebouncer_RealTimer(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	done := make(chan string, 1)
	d.Schedule(func() { done <- "first" })
	d.Schedule(func() { done <- "second" })

	select {
	case v := <-done:
		assert.Equal(t, "second", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
	select {
	case v := <-done:
		t.Fatalf("unexpected extra run %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}
