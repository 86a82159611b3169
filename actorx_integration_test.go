// Package actorx_test exercises the host-side invocation engine end to end:
// a real registry.Registry and dispatcher.Dispatcher wired to the native
// reference actors, with no WASM worker involved (see SPEC_FULL.md §8 for
// why the WASM-guest scenarios live in worker's own tests instead).
package actorx_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/actors/kv"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/codec"
	"github.com/tea-actorx/actorx-go/dispatcher"
	"github.com/tea-actorx/actorx-go/registry"
)

func encode(t *testing.T, v codec.Typed) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, v))
	return buf.Bytes()
}

func decodeInto(t *testing.T, data []byte, want codec.Typed) codec.Typed {
	t.Helper()
	typed, err := codec.DecodeInto(bytes.NewReader(data), want)
	require.NoError(t, err)
	return typed
}

// TestNativeActorInvocationEndToEnd covers a plain request/response call
// against a trusted in-host actor, scenario §8's "native round trip" case.
func TestNativeActorInvocationEndToEnd(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterNative(actorx.ActorId("tea:kv"), kv.New()))
	d := dispatcher.New(reg, nil)

	_, err := d.Invoke(context.Background(), nil, actorx.ActorId("tea:kv"), encode(t, &kv.Put{Key: "x", Value: []byte("1")}))
	require.NoError(t, err)

	resp, err := d.Invoke(context.Background(), nil, actorx.ActorId("tea:kv"), encode(t, &kv.Get{Key: "x"}))
	require.NoError(t, err)
	value := decodeInto(t, resp, &kv.Value{}).(*kv.Value)
	require.True(t, value.Found)
	require.Equal(t, "1", string(value.Value))
}

// TestGasExhaustionBeforeHandlerRuns covers scenario §8's gas-exhaustion
// case: a caller that budgets less gas than a priced request declares never
// reaches the handler.
func TestGasExhaustionBeforeHandlerRuns(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterNative(actorx.ActorId("tea:kv"), kv.New()))
	d := dispatcher.New(reg, nil)

	ctx := callctx.WithGas(context.Background())
	require.NoError(t, callctx.SetGas(ctx, 1))

	_, err := d.Invoke(ctx, nil, actorx.ActorId("tea:kv"), encode(t, &kv.Put{Key: "x", Value: []byte("1")}))
	require.ErrorIs(t, err, actorx.ErrGasExhausted)

	resp, err := d.Invoke(context.Background(), nil, actorx.ActorId("tea:kv"), encode(t, &kv.Get{Key: "x"}))
	require.NoError(t, err)
	value := decodeInto(t, resp, &kv.Value{}).(*kv.Value)
	require.False(t, value.Found, "the priced Put must never have reached the handler")
}

// TestUnsignedModuleRejected covers scenario §8's unsigned-module case: a
// WASM registration attempt without a valid signature envelope fails before
// the module is ever handed to a worker.
func TestUnsignedModuleRejected(t *testing.T) {
	reg := registry.New()
	err := reg.RegisterWasm(actorx.ActorId("tea:guest"), []byte("not a signed module"))
	require.Error(t, err)

	_, ok := reg.Lookup(actorx.ActorId("tea:guest"))
	require.False(t, ok)
}

// TestInvocationTimeout covers scenario §8's timeout case: a caller-supplied
// deadline aborts an invocation that never returns.
func TestInvocationTimeout(t *testing.T) {
	reg := registry.New()
	blocking := &blockingHandler{}
	require.NoError(t, reg.RegisterNative(actorx.ActorId("tea:slow"), blocking))
	d := dispatcher.New(reg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Invoke(ctx, nil, actorx.ActorId("tea:slow"), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingHandler struct{}

func (blockingHandler) Handle(ctx context.Context, _ []byte) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var _ actorx.Handler = blockingHandler{}
