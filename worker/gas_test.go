package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/config"
)

type hostFunctionDefinitionStub struct{ api.FunctionDefinition }

func (hostFunctionDefinitionStub) GoFunction() api.GoFunction { return stubGoFunction{} }

type guestFunctionDefinitionStub struct{ api.FunctionDefinition }

func (guestFunctionDefinitionStub) GoFunction() api.GoFunction { return nil }

type stubGoFunction struct{}

func (stubGoFunction) Call(context.Context, []uint64) {}

func TestGasListenerFactoryChargesHostFunctionCost(t *testing.T) {
	schedule := config.GasSchedule{CallCost: 1, HostFunctionCost: 7}
	factory := &gasListenerFactory{schedule: schedule}
	listener := factory.NewFunctionListener(hostFunctionDefinitionStub{})
	require.Equal(t, uint64(7), listener.(*gasListener).cost)
}

func TestGasListenerFactoryChargesCallCostForGuestFunctions(t *testing.T) {
	schedule := config.GasSchedule{CallCost: 3, HostFunctionCost: 7}
	factory := &gasListenerFactory{schedule: schedule}
	listener := factory.NewFunctionListener(guestFunctionDefinitionStub{})
	require.Equal(t, uint64(3), listener.(*gasListener).cost)
}

func TestGasListenerBeforeDebitsGasCell(t *testing.T) {
	ctx := callctx.WithGas(context.Background())
	require.NoError(t, callctx.SetGas(ctx, 10))

	listener := &gasListener{cost: 4}
	listener.Before(ctx, nil, nil, nil, nil)

	remaining, err := callctx.GetGas(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(6), remaining)
}

func TestGasListenerBeforePanicsOnExhaustion(t *testing.T) {
	ctx := callctx.WithGas(context.Background())
	require.NoError(t, callctx.SetGas(ctx, 2))

	listener := &gasListener{cost: 5}

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		listener.Before(ctx, nil, nil, nil, nil)
	}()

	exhausted, ok := recovered.(gasExhausted)
	require.True(t, ok, "Before should panic with a gasExhausted value on underflow")
	require.ErrorIs(t, exhausted.cause, actorx.ErrGasExhausted)

	remaining, err := callctx.GetGas(ctx)
	require.NoError(t, err)
	require.Zero(t, remaining, "gas cell should clamp to zero on exhaustion")
}
