//go:build wasip1

package wasmguest

import (
	"unsafe"

	"github.com/tea-actorx/actorx-go/abiwire"
)

var currentInput abiwire.Operation
var currentOutput []byte

// pinned retains every buffer handed across the ABI boundary so Go's
// garbage collector never reclaims memory the host still holds a raw
// pointer into. A guest instance is short-lived (one invocation's worth of
// steps), so this never needs to shrink.
var pinned [][]byte

// abi_init performs one-time guest setup. It returns a reserved value (0)
// rather than a scratch-struct pointer: unlike the original ABI, this guest
// has no caller-visible struct to hand back — Encode/Decode round-trip the
// operation payload directly through guest memory instead.
//
//go:wasmexport abi_init
func abiInit() uint32 {
	return 0
}

// abi_init_handle receives one encoded abiwire.Operation: a KindCall
// carrying the actual request on the first step of an invocation, or a
// KindReturnOk/KindReturnErr resuming a call the guest previously
// suspended on via Invoke.
//
//go:wasmexport abi_init_handle
func abiInitHandle(ptr, length uint32) uint64 {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	data := append([]byte(nil), buf...)
	op, err := abiwire.Decode(data)
	if err != nil {
		currentInput = abiwire.Operation{Kind: abiwire.KindReturnErr, ErrMsg: err.Error()}
		return 1
	}
	currentInput = op
	return 1
}

// abi_handle runs the handler to its next suspension point or completion.
//
//go:wasmexport abi_handle
func abiHandle(handleID uint64) {
	switch currentInput.Kind {
	case abiwire.KindCall:
		drive(currentInput.Req)
	default:
		state.resume <- currentInput
	}
	currentOutput = abiwire.Encode(<-state.results)
}

// abi_finish_handle hands the step's output operation back to the host as
// a packed (ptr<<32 | len) guest memory reference.
//
//go:wasmexport abi_finish_handle
func abiFinishHandle(handleID uint64) uint64 {
	ptr := pin(currentOutput)
	packed := uint64(ptr)<<32 | uint64(len(currentOutput))
	currentOutput = nil
	return packed
}

// alloc reserves size bytes of guest memory for the host to write a request
// or resume payload into before calling abi_init_handle.
//
//go:wasmexport alloc
func alloc(size uint32) uint32 {
	return pin(make([]byte, size))
}

func pin(buf []byte) uint32 {
	pinned = append(pinned, buf)
	if len(buf) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
