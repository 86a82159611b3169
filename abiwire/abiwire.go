// Package abiwire defines the tiny byte encoding passed across the guest
// ABI boundary (worker <-> wasmguest): one "Operation" value per abi_handle
// step, either a nested Call a guest wants the host to service, or the
// ReturnOk/ReturnErr the host feeds back in to resume a suspended guest, or
// the guest's own final result. Kept separate from both the wireproto
// worker-control-socket framing and the codec request/response envelope:
// this one crosses a function-call boundary inside a single process, not a
// stream, so it has no channel id or gas field of its own.
package abiwire

import (
	"encoding/binary"
	"fmt"
)

// Kind tags which variant of Operation a frame carries.
type Kind byte

const (
	KindCall Kind = iota
	KindReturnOk
	KindReturnErr
)

// Operation mirrors the Rust Operation enum driven through wasm_actor_entry:
// exactly one of the fields below is meaningful, selected by Kind.
type Operation struct {
	Kind Kind

	Target []byte // KindCall
	Req    []byte // KindCall

	Resp []byte // KindReturnOk

	ErrMsg string // KindReturnErr
}

// Encode serializes op to a flat byte slice suitable for passing across the
// guest memory boundary.
func Encode(op Operation) []byte {
	switch op.Kind {
	case KindCall:
		return append([]byte{byte(KindCall)}, concatLP(op.Target, op.Req)...)
	case KindReturnOk:
		return append([]byte{byte(KindReturnOk)}, lp(op.Resp)...)
	case KindReturnErr:
		return append([]byte{byte(KindReturnErr)}, lp([]byte(op.ErrMsg))...)
	default:
		return []byte{byte(op.Kind)}
	}
}

// Decode parses an Operation previously produced by Encode.
func Decode(data []byte) (Operation, error) {
	if len(data) == 0 {
		return Operation{}, fmt.Errorf("abiwire: empty operation")
	}
	kind := Kind(data[0])
	rest := data[1:]
	switch kind {
	case KindCall:
		target, rest, err := readLP(rest)
		if err != nil {
			return Operation{}, fmt.Errorf("abiwire: read target: %w", err)
		}
		req, _, err := readLP(rest)
		if err != nil {
			return Operation{}, fmt.Errorf("abiwire: read req: %w", err)
		}
		return Operation{Kind: KindCall, Target: target, Req: req}, nil
	case KindReturnOk:
		resp, _, err := readLP(rest)
		if err != nil {
			return Operation{}, fmt.Errorf("abiwire: read resp: %w", err)
		}
		return Operation{Kind: KindReturnOk, Resp: resp}, nil
	case KindReturnErr:
		msg, _, err := readLP(rest)
		if err != nil {
			return Operation{}, fmt.Errorf("abiwire: read err msg: %w", err)
		}
		return Operation{Kind: KindReturnErr, ErrMsg: string(msg)}, nil
	default:
		return Operation{}, fmt.Errorf("abiwire: unknown operation kind %d", kind)
	}
}

func lp(b []byte) []byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], uint32(len(b)))
	return append(out[:], b...)
}

func concatLP(a, b []byte) []byte {
	return append(lp(a), lp(b)...)
}

func readLP(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, fmt.Errorf("truncated payload")
	}
	return b[:n], b[n:], nil
}
