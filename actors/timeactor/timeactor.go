// Package timeactor is a small native reference actor returning the host's
// wall-clock time, used by the end-to-end scenarios to exercise a trusted,
// in-host handler with no WASM involvement at all.
package timeactor

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/codec"
)

// Request asks the time actor for the current time. It carries no fields;
// its only purpose is to exist as a distinct, codec-registered type.
type Request struct{}

// TypeID implements codec.Typed.
func (Request) TypeID() string { return "timeactor.Request" }

// Response carries the host's wall-clock time at the moment it handled the
// request, as a Unix nanosecond timestamp (msgpack has no native time.Time
// support without an extension, so this keeps the wire format simple).
type Response struct {
	UnixNano int64
}

// TypeID implements codec.Typed.
func (Response) TypeID() string { return "timeactor.Response" }

func init() {
	codec.Register(Request{})
	codec.Register(Response{})
}

// Actor implements actorx.Handler, reporting time.Now() on every call.
type Actor struct {
	// Now is overridable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// New returns a ready-to-register Actor.
func New() *Actor {
	return &Actor{Now: time.Now}
}

// Handle implements actorx.Handler.
func (a *Actor) Handle(_ context.Context, req []byte) ([]byte, error) {
	typed, err := codec.Decode(bytes.NewReader(req))
	if err != nil {
		return nil, fmt.Errorf("timeactor: decode request: %w", err)
	}
	if _, ok := typed.(*Request); !ok {
		return nil, fmt.Errorf("timeactor: %w: %T", codec.ErrUnexpectedType, typed)
	}

	now := a.Now
	if now == nil {
		now = time.Now
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, &Response{UnixNano: now().UnixNano()}); err != nil {
		return nil, fmt.Errorf("timeactor: encode response: %w", err)
	}
	return buf.Bytes(), nil
}

var _ actorx.Handler = (*Actor)(nil)
