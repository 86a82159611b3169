package testcommon

import (
	"context"
	"sync"

	"github.com/tea-actorx/actorx-go/actorx"
)

// RecordingActor is a configurable actorx.Handler that records every request
// it receives, for tests that need to assert an actor was invoked with a
// particular payload a given number of times, the narrowed Go equivalent of
// the teacher's mock smart contract caller test double.
type RecordingActor struct {
	// Respond computes the response for a request; defaults to echoing req
	// back unchanged when nil.
	Respond func(req []byte) ([]byte, error)

	mu       sync.Mutex
	requests [][]byte
}

// Handle implements actorx.Handler.
func (a *RecordingActor) Handle(_ context.Context, req []byte) ([]byte, error) {
	a.mu.Lock()
	a.requests = append(a.requests, append([]byte(nil), req...))
	a.mu.Unlock()

	if a.Respond != nil {
		return a.Respond(req)
	}
	return req, nil
}

// Requests returns every request received so far, in order.
func (a *RecordingActor) Requests() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.requests))
	copy(out, a.requests)
	return out
}

// CallCount returns how many times Handle has been invoked.
func (a *RecordingActor) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

var _ actorx.Handler = (*RecordingActor)(nil)
