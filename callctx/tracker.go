package callctx

import (
	"context"
	"sync"
	"time"

	"github.com/tea-actorx/actorx-go/actorx"
)

// DefaultExpiry is the per-invocation wall-clock budget, refreshed on every
// Track call, matching the 30 second default of the tracker this type is
// ported from.
const DefaultExpiry = 30 * time.Second

// Tracker races an invocation against a rolling expiry, producing
// ErrInvocationTimeout if the expiry elapses before the invocation
// completes. A Dispatcher owns one Tracker and routes every invocation
// through it, so a fresh call (nested or not) refreshes the same rolling
// deadline rather than starting an independent one; when that deadline
// lapses, every invocation still in flight under it times out.
type Tracker struct {
	mu        sync.Mutex
	expiry    time.Time
	canceller chan struct{}
	running   bool
}

// NewTracker returns an idle Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

type invokeResult struct {
	resp []byte
	err  error
}

// Track runs fn, refreshing the tracker's expiry to DefaultExpiry from now.
// If the expiry elapses before fn returns, Track returns
// actorx.NewInvocationTimeout(stack) and fn's eventual result is discarded.
func (t *Tracker) Track(ctx context.Context, stack actorx.CallingStack, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	t.mu.Lock()
	first := !t.running
	if first {
		t.canceller = make(chan struct{})
		t.running = true
	}
	cancel := t.canceller
	t.expiry = time.Now().Add(DefaultExpiry)
	t.mu.Unlock()

	if first {
		go t.run()
	}

	results := make(chan invokeResult, 1)
	go func() {
		resp, err := fn(ctx)
		results <- invokeResult{resp, err}
	}()

	select {
	case r := <-results:
		return r.resp, r.err
	case <-cancel:
		return nil, actorx.NewInvocationTimeout(stack)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Tracker) run() {
	for {
		t.mu.Lock()
		remaining := time.Until(t.expiry)
		if remaining > 0 {
			t.mu.Unlock()
			time.Sleep(remaining)
			continue
		}
		canceller := t.canceller
		t.canceller = nil
		t.running = false
		t.mu.Unlock()
		if canceller != nil {
			close(canceller)
		}
		return
	}
}
