package actorx

import (
	"errors"
	"fmt"
)

// ErrActorNotExist signals that no registry entry matches the requested id.
var ErrActorNotExist = errors.New("actor does not exist")

// ErrAccessNotPermitted signals that the calling module's claims do not
// grant access to the target actor.
var ErrAccessNotPermitted = errors.New("access to actor not permitted")

// ErrInvocationRing signals that invoking the target would revisit an actor
// already present on the calling stack.
var ErrInvocationRing = errors.New("invocation would form a ring")

// ErrGasExhausted signals that an actor's gas cell underflowed during
// execution.
var ErrGasExhausted = errors.New("gas fee exhausted")

// ErrWorkerCrashed signals that a worker process terminated unexpectedly
// while handling an invocation.
var ErrWorkerCrashed = errors.New("worker process crashed")

// ErrActorDeactivating signals that the target actor is mid-deactivation
// and cannot accept new invocations.
var ErrActorDeactivating = errors.New("actor is deactivating")

// ErrActorHostDropped signals that the host owning this invocation has
// already shut down.
var ErrActorHostDropped = errors.New("actor host has been dropped")

// ErrOutOfActorHostContext signals that a call requiring host context
// (gas, calling stack) executed outside of one.
var ErrOutOfActorHostContext = errors.New("operation executed outside of an actor host context")

// ErrInvocationTimeout signals that an invocation exceeded its allotted
// wall-clock budget.
var ErrInvocationTimeout = errors.New("invocation timed out")

// ErrNotSupported signals that the requested operation has no handler.
var ErrNotSupported = errors.New("operation not supported")

// ErrUnsignedModule signals that a WASM module carries no signature
// section, or the section failed verification.
var ErrUnsignedModule = errors.New("module is not signed")

// ErrUnknownMasterCommand signals that a worker received a wire command it
// does not recognize.
var ErrUnknownMasterCommand = errors.New("unknown master command")

// ErrChannelNotExist signals that a wire frame referenced a channel id the
// worker has no record of.
var ErrChannelNotExist = errors.New("channel does not exist")

// NewActorNotExist wraps ErrActorNotExist with the offending id.
func NewActorNotExist(id ActorId) error {
	return fmt.Errorf("%w: %s", ErrActorNotExist, id)
}

// NewAccessNotPermitted wraps ErrAccessNotPermitted with the offending id.
func NewAccessNotPermitted(id ActorId) error {
	return fmt.Errorf("%w: %s", ErrAccessNotPermitted, id)
}

// NewInvocationRing wraps ErrInvocationRing with the stack that would have
// formed the ring.
func NewInvocationRing(id ActorId, stack CallingStack) error {
	return fmt.Errorf("%w: %s re-enters via %s", ErrInvocationRing, id, stack)
}

// NewGasExhausted wraps ErrGasExhausted with the actor that ran out.
func NewGasExhausted(id ActorId) error {
	return fmt.Errorf("%w: %s", ErrGasExhausted, id)
}

// NewInvocationTimeout wraps ErrInvocationTimeout with the stack active at
// the time of cancellation.
func NewInvocationTimeout(stack CallingStack) error {
	return fmt.Errorf("%w: stack %s", ErrInvocationTimeout, stack)
}
