package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/config"
)

type stubBridge struct {
	InvokeCalled func(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error)
}

func (b *stubBridge) Invoke(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error) {
	if b.InvokeCalled != nil {
		return b.InvokeCalled(ctx, caller, target, req)
	}
	return nil, nil
}

func TestEngineInvokeRequiresGasContext(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, config.Default(), &stubBridge{})
	require.NoError(t, err)
	defer engine.Close(ctx)

	entry := &actorx.Entry{Id: actorx.ActorId("tea:guest"), Kind: actorx.KindWasm, Module: emptyModule()}
	_, _, err = engine.Invoke(context.Background(), entry, actorx.ActorId("tea:caller"), entry.Id, nil)
	require.ErrorIs(t, err, actorx.ErrOutOfActorHostContext)
}

func TestEngineInvokeRejectsUncompilableModule(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, config.Default(), &stubBridge{})
	require.NoError(t, err)
	defer engine.Close(ctx)

	gasCtx := callctx.WithGas(context.Background())
	require.NoError(t, callctx.SetGas(gasCtx, 1000))

	entry := &actorx.Entry{Id: actorx.ActorId("tea:guest"), Kind: actorx.KindWasm, Module: []byte("not a wasm module")}
	_, _, err = engine.Invoke(gasCtx, entry, actorx.ActorId("tea:caller"), entry.Id, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, actorx.ErrOutOfActorHostContext))
}

func TestEngineReapIdleOnEmptyEngineIsANoop(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, config.Default(), &stubBridge{})
	require.NoError(t, err)
	defer engine.Close(ctx)

	require.NotPanics(t, func() { engine.ReapIdle(ctx, 0) })
}
