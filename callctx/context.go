// Package callctx threads per-invocation host state — the active host
// handle, the remaining gas cell, and the calling stack — through
// context.Context values. Go has neither task-locals nor thread-locals;
// context.Context values are the idiomatic substitute the ecosystem reaches
// for when a value must follow one logical call chain across goroutine
// boundaries.
package callctx

import (
	"context"
	"sync/atomic"

	"github.com/tea-actorx/actorx-go/actorx"
)

type contextKey int

const (
	hostKey contextKey = iota
	gasKey
	stackKey
)

// WithHost returns a context carrying host as the active host handle. host
// is an arbitrary value (typically a *dispatcher.Dispatcher); callctx does
// not depend on the dispatcher package to avoid an import cycle.
func WithHost(ctx context.Context, host any) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

// Host returns the active host handle installed by WithHost, if any.
func Host(ctx context.Context) (any, bool) {
	v := ctx.Value(hostKey)
	return v, v != nil
}

// WithGas returns a context carrying a fresh gas cell initialized to zero,
// matching the original with_gas scope's Cell::new(0) starting point.
func WithGas(ctx context.Context) context.Context {
	cell := new(atomic.Uint64)
	return context.WithValue(ctx, gasKey, cell)
}

func gasCell(ctx context.Context) (*atomic.Uint64, bool) {
	cell, ok := ctx.Value(gasKey).(*atomic.Uint64)
	return cell, ok
}

// GetGas returns the gas remaining in ctx's cell.
func GetGas(ctx context.Context) (uint64, error) {
	cell, ok := gasCell(ctx)
	if !ok {
		return 0, actorx.ErrOutOfActorHostContext
	}
	return cell.Load(), nil
}

// SetGas overwrites ctx's gas cell.
func SetGas(ctx context.Context, gas uint64) error {
	cell, ok := gasCell(ctx)
	if !ok {
		return actorx.ErrOutOfActorHostContext
	}
	cell.Store(gas)
	return nil
}

// Cost deducts cost from ctx's gas cell, clamping to zero and returning
// ErrGasExhausted on underflow, exactly as the cost() helper it is ported
// from.
func Cost(ctx context.Context, cost uint64) error {
	cell, ok := gasCell(ctx)
	if !ok {
		return actorx.ErrOutOfActorHostContext
	}
	for {
		current := cell.Load()
		if current < cost {
			cell.Store(0)
			return actorx.ErrGasExhausted
		}
		if cell.CompareAndSwap(current, current-cost) {
			return nil
		}
	}
}

// WithCallingStack returns a context carrying stack as the current
// invocation chain.
func WithCallingStack(ctx context.Context, stack actorx.CallingStack) context.Context {
	return context.WithValue(ctx, stackKey, stack)
}

// CallingStack returns the invocation chain installed by WithCallingStack.
// A zero-value CallingStack is returned when ctx carries none.
func CallingStack(ctx context.Context) actorx.CallingStack {
	stack, _ := ctx.Value(stackKey).(actorx.CallingStack)
	return stack
}
