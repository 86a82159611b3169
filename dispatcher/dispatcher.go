// Package dispatcher routes an invocation to its target actor, enforcing
// claims, ring detection, gas accounting and the per-invocation timeout
// described for the host's registry-and-dispatch component.
package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	logger "github.com/multiversx/mx-chain-logger-go"
	"golang.org/x/sync/errgroup"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/codec"
	"github.com/tea-actorx/actorx-go/registry"
)

var log = logger.GetOrCreate("actorx/dispatcher")

// WasmInvoker executes an invocation against a registered WASM module in a
// worker process. *worker.Engine satisfies this interface; Dispatcher is
// defined against the interface rather than the concrete type so it can be
// unit tested with a stub, the same decoupling the teacher's VMHost
// composition gives its own execution contexts.
type WasmInvoker interface {
	Invoke(ctx context.Context, entry *actorx.Entry, caller, target actorx.ActorId, req []byte) (resp []byte, gasUsed uint64, err error)
}

// Dispatcher is the sole entry point invocations pass through: every call
// is resolved against the Registry, checked against the caller's claims and
// the caller's position on the calling stack, tracked against a timeout, and
// finally routed to a native handler or a WasmInvoker.
type Dispatcher struct {
	registry *registry.Registry
	wasm     WasmInvoker
	tracker  *callctx.Tracker

	// AllowSelfRecursion permits an actor to appear more than once on its
	// own calling stack as long as no *other* actor interleaves the
	// repeated occurrences (A -> A -> A is allowed, A -> B -> A is not).
	// Disabled by default: any repeat occurrence of an actor id on the
	// stack is rejected.
	AllowSelfRecursion bool
}

// New returns a Dispatcher backed by reg for lookups and wasm for executing
// WASM-kind entries.
func New(reg *registry.Registry, wasm WasmInvoker) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		wasm:     wasm,
		tracker:  callctx.NewTracker(),
	}
}

// Invoke dispatches req from caller to target, enforcing access claims and
// ring detection before execution and tracking the call against the
// invocation timeout.
func (d *Dispatcher) Invoke(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error) {
	entry, ok := d.registry.Entry(target)
	if !ok {
		return nil, actorx.NewActorNotExist(target)
	}

	if err := d.checkAccess(caller, target); err != nil {
		return nil, err
	}

	stack := callctx.CallingStack(ctx)
	if d.formsRing(stack, target) {
		return nil, actorx.NewInvocationRing(target, stack)
	}
	nextStack := stack.Push(target)
	ctx = callctx.WithCallingStack(ctx, nextStack)
	ctx = ensureGas(ctx)

	log.Trace("dispatching invocation", "caller", caller.String(), "target", target.String(), "depth", nextStack.Len())

	return d.tracker.Track(ctx, nextStack, func(ctx context.Context) ([]byte, error) {
		return d.execute(ctx, entry, caller, target, req)
	})
}

// ensureGas installs an effectively unlimited gas cell on ctx when the
// caller hasn't already set one up with callctx.WithGas/SetGas, so that
// gas-unaware callers (direct host calls, most unit tests) don't have to
// thread gas plumbing through every Invoke just to exercise a priced
// request or a WASM guest's metered execution.
func ensureGas(ctx context.Context) context.Context {
	if _, err := callctx.GetGas(ctx); err == nil {
		return ctx
	}
	ctx = callctx.WithGas(ctx)
	_ = callctx.SetGas(ctx, math.MaxUint64)
	return ctx
}

func (d *Dispatcher) execute(ctx context.Context, entry *actorx.Entry, caller, target actorx.ActorId, req []byte) ([]byte, error) {
	switch entry.Kind {
	case actorx.KindNative:
		return d.executeNative(ctx, entry, req)
	case actorx.KindWasm:
		if d.wasm == nil {
			return nil, actorx.ErrNotSupported
		}
		resp, gasUsed, err := d.wasm.Invoke(ctx, entry, caller, target, req)
		if costErr := callctx.Cost(ctx, gasUsed); costErr != nil {
			return nil, costErr
		}
		return resp, err
	default:
		return nil, fmt.Errorf("dispatcher: unknown actor kind %d", entry.Kind)
	}
}

// executeNative runs a native handler, bracketing the Handle call with the
// declared price of req (debited before Handle runs) and, when the handler
// implements InvokeObserver, its PreInvoke/PostInvoke observations.
func (d *Dispatcher) executeNative(ctx context.Context, entry *actorx.Entry, req []byte) ([]byte, error) {
	if observer, ok := entry.Native.(actorx.InvokeObserver); ok {
		if err := observer.PreInvoke(ctx, req); err != nil && !errors.Is(err, codec.ErrUnexpectedType) {
			return nil, err
		}
	}

	resp, err := func() ([]byte, error) {
		if priceErr := chargePrice(ctx, req); priceErr != nil {
			return nil, priceErr
		}
		return entry.Native.Handle(ctx, req)
	}()

	if observer, ok := entry.Native.(actorx.InvokeObserver); ok {
		if postErr := observer.PostInvoke(ctx, req, resp, err); postErr != nil && !errors.Is(postErr, codec.ErrUnexpectedType) {
			return nil, postErr
		}
	}
	return resp, err
}

// chargePrice decodes req as a codec envelope and debits its declared price
// from ctx's gas cell before the handler sees it. A request that isn't a
// recognized codec envelope carries no declared price and is treated as
// free, matching codec.Price's "0 unless Priced" default.
func chargePrice(ctx context.Context, req []byte) error {
	typed, err := codec.Decode(bytes.NewReader(req))
	if err != nil {
		return nil
	}
	price := codec.Price(typed)
	if price == 0 {
		return nil
	}
	return callctx.Cost(ctx, price)
}

// Activate runs target's activation hook, if its handler implements
// Lifecycle.
func (d *Dispatcher) Activate(ctx context.Context, caller, target actorx.ActorId) error {
	entry, ok := d.registry.Entry(target)
	if !ok {
		return actorx.NewActorNotExist(target)
	}
	if err := d.checkAccess(caller, target); err != nil {
		return err
	}
	if entry.Kind != actorx.KindNative {
		return nil
	}
	if lifecycle, ok := entry.Native.(actorx.Lifecycle); ok {
		return lifecycle.Activate(ctx)
	}
	return nil
}

// Deactivate runs target's deactivation hook, if its handler implements
// Lifecycle.
func (d *Dispatcher) Deactivate(ctx context.Context, caller, target actorx.ActorId) error {
	entry, ok := d.registry.Entry(target)
	if !ok {
		return actorx.NewActorNotExist(target)
	}
	if err := d.checkAccess(caller, target); err != nil {
		return err
	}
	if entry.Kind != actorx.KindNative {
		return nil
	}
	if lifecycle, ok := entry.Native.(actorx.Lifecycle); ok {
		return lifecycle.Deactivate(ctx)
	}
	return nil
}

// MulticastActivate activates every actor in targets concurrently,
// aggregating the first error encountered.
func (d *Dispatcher) MulticastActivate(ctx context.Context, caller actorx.ActorId, targets []actorx.ActorId) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		group.Go(func() error {
			return d.Activate(ctx, caller, target)
		})
	}
	return group.Wait()
}

// checkAccess enforces that caller's own signed claims grant it permission
// to invoke target: access is a property of the calling module's metadata,
// not the callee's. A nil caller (the host acting directly), calls
// originating from the platform's registry actor and calls addressed to it
// are always permitted.
func (d *Dispatcher) checkAccess(caller, target actorx.ActorId) error {
	if caller == nil || caller.Equal(actorx.Tappstore) || target.Equal(actorx.Tappstore) {
		return nil
	}
	callerEntry, ok := d.registry.Entry(caller)
	if !ok || callerEntry.Kind != actorx.KindWasm {
		return nil
	}
	if callerEntry.Metadata.HasAccess(target) {
		return nil
	}
	return actorx.NewAccessNotPermitted(target)
}

func (d *Dispatcher) formsRing(stack actorx.CallingStack, target actorx.ActorId) bool {
	if !stack.Contains(target) {
		return false
	}
	if !d.AllowSelfRecursion {
		return true
	}
	top, ok := stack.Top()
	return !ok || !top.Equal(target)
}
