//go:build wasip1

// Package wasmguest is the guest-side runtime linked into an actor module
// compiled with GOOS=wasip1 GOARCH=wasm. It exports the four ABI functions
// (abi_init, abi_init_handle, abi_handle, abi_finish_handle) a worker
// process drives an invocation through, and gives guest actor code a
// synchronous Invoke call that transparently suspends the module while a
// nested call is serviced by the host, playing the role the original
// guest's single-step Interrupt future and its futures::executor::block_on
// driver play together.
package wasmguest

import (
	"github.com/tea-actorx/actorx-go/abiwire"
)

// Handler is implemented by the single actor type a guest module links in.
type Handler interface {
	Handle(req []byte) (resp []byte, err error)
}

// state is the guest module's process-wide scratch space. A wasip1 guest
// instance is driven by exactly one wazero caller at a time, so a
// package-level var plays the role the original guest reserved for a
// UnsafeCell-backed static: there is exactly one logical "thread" for it to
// be local to.
var state struct {
	handler Handler

	// resume delivers the host's response to a goroutine blocked in
	// Invoke, driving it back to completion or to its next suspension.
	resume chan abiwire.Operation
	// results delivers either a KindCall suspension or the handler's
	// final KindReturnOk/KindReturnErr outcome back to abi_handle.
	results chan abiwire.Operation

	pendingOutput []byte
}

// Export registers h as the module's single actor handler, the guest-side
// equivalent of binding a concrete actor type to the four ABI exports.
func Export(h Handler) {
	state.handler = h
}

// Invoke issues a nested call to target from within a running Handle call.
// It suspends the current abi_handle step by publishing a KindCall
// operation and blocking until the worker resumes this goroutine with the
// corresponding KindReturnOk/KindReturnErr, giving guest code a plain
// synchronous call where the original relied on async/await suspension.
func Invoke(target, req []byte) ([]byte, error) {
	state.results <- abiwire.Operation{Kind: abiwire.KindCall, Target: target, Req: req}
	result := <-state.resume
	if result.Kind == abiwire.KindReturnErr {
		return nil, guestError(result.ErrMsg)
	}
	return result.Resp, nil
}

type guestError string

func (e guestError) Error() string { return string(e) }

// drive runs h.Handle on its own goroutine and funnels its result back
// through state.results, the cooperative scheduler standing in for the
// single-step future executor the original guest used.
func drive(req []byte) {
	state.resume = make(chan abiwire.Operation)
	state.results = make(chan abiwire.Operation, 1)
	handler := state.handler

	go func() {
		resp, err := handler.Handle(req)
		if err != nil {
			state.results <- abiwire.Operation{Kind: abiwire.KindReturnErr, ErrMsg: err.Error()}
			return
		}
		state.results <- abiwire.Operation{Kind: abiwire.KindReturnOk, Resp: resp}
	}()
}
