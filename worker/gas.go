package worker

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/config"
)

// gasExhausted is recovered at the top of Engine.Invoke to turn a metering
// trap into a regular error return instead of unwinding through wazero.
type gasExhausted struct{ cause error }

// gasListenerFactory implements wazero's experimental function-listener hook
// to charge gas on every function call a guest instance makes, the Go
// equivalent of the per-instruction cost table the original worker's engine
// metered with.
type gasListenerFactory struct {
	schedule config.GasSchedule
}

func (f *gasListenerFactory) NewFunctionListener(def api.FunctionDefinition) experimental.FunctionListener {
	cost := f.schedule.CallCost
	if def.GoFunction() != nil {
		cost = f.schedule.HostFunctionCost
	}
	return &gasListener{cost: cost}
}

type gasListener struct {
	cost uint64
}

func (g *gasListener) Before(ctx context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64, _ experimental.StackIterator) context.Context {
	if err := callctx.Cost(ctx, g.cost); err != nil {
		panic(gasExhausted{cause: err})
	}
	return ctx
}

func (g *gasListener) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {}

func (g *gasListener) Abort(context.Context, api.Module, api.FunctionDefinition, error) {}
