// Package kv is a native reference actor implementing a tiny in-memory
// key/value store, grounded on the teacher's own storage context as the
// shape of a stateful native handler a host links directly into its
// process (no WASM sandboxing — trusted code). Its Put request declares a
// price, which the dispatcher debits from the caller's gas before Handle runs.
package kv

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/codec"
)

// Get requests the current value stored under Key.
type Get struct {
	Key string
}

// TypeID implements codec.Typed.
func (Get) TypeID() string { return "kv.Get" }

// Put stores Value under Key, overwriting any existing entry.
type Put struct {
	Key   string
	Value []byte
}

// TypeID implements codec.Typed.
func (Put) TypeID() string { return "kv.Put" }

// Price implements codec.Priced: writes cost more than reads.
func (Put) Price() uint64 { return 4 }

// Value is the response to a Get request.
type Value struct {
	Found bool
	Value []byte
}

// TypeID implements codec.Typed.
func (Value) TypeID() string { return "kv.Value" }

// Ack acknowledges a Put request.
type Ack struct{}

// TypeID implements codec.Typed.
func (Ack) TypeID() string { return "kv.Ack" }

func init() {
	codec.Register(Get{})
	codec.Register(Put{})
	codec.Register(Value{})
	codec.Register(Ack{})
}

// Actor is a mutex-guarded in-memory map, addressed by codec-enveloped
// Get/Put requests.
type Actor struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// New returns an empty Actor.
func New() *Actor {
	return &Actor{store: map[string][]byte{}}
}

// Handle implements actorx.Handler. Requests travel through the codec
// envelope so Get and Put are distinguished by their wire type id rather
// than by guessing from decoded field values.
func (a *Actor) Handle(_ context.Context, req []byte) ([]byte, error) {
	typed, err := codec.Decode(bytes.NewReader(req))
	if err != nil {
		return nil, fmt.Errorf("kv: decode request: %w", err)
	}

	var resp codec.Typed
	switch request := typed.(type) {
	case *Put:
		a.mu.Lock()
		a.store[request.Key] = request.Value
		a.mu.Unlock()
		resp = &Ack{}
	case *Get:
		a.mu.RLock()
		value, found := a.store[request.Key]
		a.mu.RUnlock()
		resp = &Value{Found: found, Value: value}
	default:
		return nil, fmt.Errorf("kv: %w: %T", codec.ErrUnexpectedType, typed)
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, resp); err != nil {
		return nil, fmt.Errorf("kv: encode response: %w", err)
	}
	return buf.Bytes(), nil
}

var _ actorx.Handler = (*Actor)(nil)
