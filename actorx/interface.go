package actorx

import "context"

// Handler is implemented by every actor, native or WASM-backed, that can
// receive an invocation. req and the returned value are codec.Typed
// payloads; handlers decode/encode through the codec package rather than
// this interface so Handler itself stays free of generic parameters.
type Handler interface {
	Handle(ctx context.Context, req []byte) (resp []byte, err error)
}

// Lifecycle is optionally implemented by a Handler to observe activation and
// deactivation hooks.
type Lifecycle interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
}

// InvokeObserver is optionally implemented by a Handler to observe every
// invocation the dispatcher routes to it, bracketing the Handle call the
// same way Lifecycle brackets activation. req is the raw envelope the
// dispatcher is about to hand (or just handed) to Handle; resp and
// invokeErr in PostInvoke are Handle's own return values. Either method may
// return codec.ErrUnexpectedType to decline an observation it has no
// opinion on; the dispatcher tolerates that one sentinel silently and
// aborts the invocation on any other error.
type InvokeObserver interface {
	PreInvoke(ctx context.Context, req []byte) error
	PostInvoke(ctx context.Context, req, resp []byte, invokeErr error) error
}

// Dispatcher routes an invocation to the actor identified by target,
// enforcing claims and ring detection along the way.
type Dispatcher interface {
	Invoke(ctx context.Context, caller, target ActorId, req []byte) (resp []byte, err error)
	Activate(ctx context.Context, caller, target ActorId) error
	Deactivate(ctx context.Context, caller, target ActorId) error
	MulticastActivate(ctx context.Context, caller ActorId, targets []ActorId) error
}

// Registry is the read-mostly table of actors known to a host, consulted by
// a Dispatcher on every invocation.
type Registry interface {
	RegisterNative(id ActorId, handler Handler) error
	RegisterWasm(id ActorId, module []byte) error
	Lookup(id ActorId) (ActorKind, bool)
	Metadata(id ActorId) (Metadata, bool)
	Unregister(id ActorId) error
}

// Entry is a single registry record: one registered actor's handler or
// backing module, together with its signed metadata.
type Entry struct {
	Id       ActorId
	Kind     ActorKind
	Metadata Metadata
	Native   Handler
	Module   []byte
}
