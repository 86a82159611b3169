// Package mock provides scriptable stand-ins for actorx's core interfaces,
// following the teacher's own Stub convention: every interface method has a
// matching XxxCalled field, invoked when set and falling back to a neutral
// default otherwise, so a test only has to wire the handful of methods its
// scenario actually exercises.
package mock

import (
	"context"

	"github.com/tea-actorx/actorx-go/actorx"
)

var _ actorx.Dispatcher = (*DispatcherStub)(nil)

// DispatcherStub is a scriptable actorx.Dispatcher.
type DispatcherStub struct {
	InvokeCalled            func(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error)
	ActivateCalled          func(ctx context.Context, caller, target actorx.ActorId) error
	DeactivateCalled        func(ctx context.Context, caller, target actorx.ActorId) error
	MulticastActivateCalled func(ctx context.Context, caller actorx.ActorId, targets []actorx.ActorId) error
}

// Invoke implements actorx.Dispatcher.
func (d *DispatcherStub) Invoke(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error) {
	if d.InvokeCalled != nil {
		return d.InvokeCalled(ctx, caller, target, req)
	}
	return nil, nil
}

// Activate implements actorx.Dispatcher.
func (d *DispatcherStub) Activate(ctx context.Context, caller, target actorx.ActorId) error {
	if d.ActivateCalled != nil {
		return d.ActivateCalled(ctx, caller, target)
	}
	return nil
}

// Deactivate implements actorx.Dispatcher.
func (d *DispatcherStub) Deactivate(ctx context.Context, caller, target actorx.ActorId) error {
	if d.DeactivateCalled != nil {
		return d.DeactivateCalled(ctx, caller, target)
	}
	return nil
}

// MulticastActivate implements actorx.Dispatcher.
func (d *DispatcherStub) MulticastActivate(ctx context.Context, caller actorx.ActorId, targets []actorx.ActorId) error {
	if d.MulticastActivateCalled != nil {
		return d.MulticastActivateCalled(ctx, caller, targets)
	}
	return nil
}

var _ actorx.Handler = (*HandlerStub)(nil)

// HandlerStub is a scriptable actorx.Handler.
type HandlerStub struct {
	HandleCalled func(ctx context.Context, req []byte) ([]byte, error)
}

// Handle implements actorx.Handler.
func (h *HandlerStub) Handle(ctx context.Context, req []byte) ([]byte, error) {
	if h.HandleCalled != nil {
		return h.HandleCalled(ctx, req)
	}
	return nil, nil
}

var _ actorx.Lifecycle = (*LifecycleStub)(nil)

// LifecycleStub is a scriptable actorx.Lifecycle, embeddable alongside
// HandlerStub to additionally exercise activation/deactivation hooks.
type LifecycleStub struct {
	ActivateCalled   func(ctx context.Context) error
	DeactivateCalled func(ctx context.Context) error
}

// Activate implements actorx.Lifecycle.
func (l *LifecycleStub) Activate(ctx context.Context) error {
	if l.ActivateCalled != nil {
		return l.ActivateCalled(ctx)
	}
	return nil
}

// Deactivate implements actorx.Lifecycle.
func (l *LifecycleStub) Deactivate(ctx context.Context) error {
	if l.DeactivateCalled != nil {
		return l.DeactivateCalled(ctx)
	}
	return nil
}

var _ actorx.InvokeObserver = (*ObserverStub)(nil)

// ObserverStub is a scriptable actorx.InvokeObserver, embeddable alongside
// HandlerStub to additionally exercise the dispatcher's PreInvoke/PostInvoke
// bracketing of a native Handle call.
type ObserverStub struct {
	PreInvokeCalled  func(ctx context.Context, req []byte) error
	PostInvokeCalled func(ctx context.Context, req, resp []byte, invokeErr error) error
}

// PreInvoke implements actorx.InvokeObserver.
func (o *ObserverStub) PreInvoke(ctx context.Context, req []byte) error {
	if o.PreInvokeCalled != nil {
		return o.PreInvokeCalled(ctx, req)
	}
	return nil
}

// PostInvoke implements actorx.InvokeObserver.
func (o *ObserverStub) PostInvoke(ctx context.Context, req, resp []byte, invokeErr error) error {
	if o.PostInvokeCalled != nil {
		return o.PostInvokeCalled(ctx, req, resp, invokeErr)
	}
	return nil
}
