// Package wireproto implements the duplex frame protocol multiplexed over a
// single worker control socket: each frame carries a channel id, the gas
// remaining after the operation it encodes, and one of a Call / ReturnOk /
// ReturnErr payload.
package wireproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind tags which variant of Operation a frame carries.
type Kind byte

const (
	// KindCall carries an outbound invocation request.
	KindCall Kind = iota
	// KindReturnOk carries a successful invocation response.
	KindReturnOk
	// KindReturnErr carries a failed invocation's error payload.
	KindReturnErr
)

// Operation is one frame's payload: exactly one of Call, ReturnOk or
// ReturnErr is meaningful, selected by Kind.
type Operation struct {
	Kind Kind

	// Target is populated when Kind == KindCall.
	Target []byte
	// Req is populated when Kind == KindCall.
	Req []byte

	// Resp is populated when Kind == KindReturnOk.
	Resp []byte

	// ErrKind is populated when Kind == KindReturnErr: a short plain string
	// naming the error class ("error" from the worker, "worker_crashed" from
	// the host); it is not a codec type id.
	ErrKind string
	// ErrPayload is populated when Kind == KindReturnErr: the error message
	// text.
	ErrPayload []byte
}

// Frame is one complete wire unit: a channel id, the gas remaining, and an
// Operation.
type Frame struct {
	ChannelId uint64
	Gas       uint64
	Operation Operation
}

// WriteFrame serializes f to w.
func WriteFrame(w io.Writer, f Frame) error {
	var header [17]byte
	header[0] = byte(f.Operation.Kind)
	binary.LittleEndian.PutUint64(header[1:9], f.ChannelId)
	binary.LittleEndian.PutUint64(header[9:17], f.Gas)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wireproto: write header: %w", err)
	}

	switch f.Operation.Kind {
	case KindCall:
		if err := writeLP(w, f.Operation.Target); err != nil {
			return fmt.Errorf("wireproto: write target: %w", err)
		}
		if err := writeLP(w, f.Operation.Req); err != nil {
			return fmt.Errorf("wireproto: write req: %w", err)
		}
	case KindReturnOk:
		if err := writeLP(w, f.Operation.Resp); err != nil {
			return fmt.Errorf("wireproto: write resp: %w", err)
		}
	case KindReturnErr:
		if err := writeLP(w, []byte(f.Operation.ErrKind)); err != nil {
			return fmt.Errorf("wireproto: write err kind: %w", err)
		}
		if err := writeLP(w, f.Operation.ErrPayload); err != nil {
			return fmt.Errorf("wireproto: write err payload: %w", err)
		}
	default:
		return fmt.Errorf("wireproto: unknown operation kind %d", f.Operation.Kind)
	}
	return nil
}

// ReadFrame deserializes one Frame from r, blocking until a full frame has
// arrived or r errors.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [17]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}
	f := Frame{
		ChannelId: binary.LittleEndian.Uint64(header[1:9]),
		Gas:       binary.LittleEndian.Uint64(header[9:17]),
	}
	f.Operation.Kind = Kind(header[0])

	switch f.Operation.Kind {
	case KindCall:
		target, err := readLP(r)
		if err != nil {
			return Frame{}, fmt.Errorf("wireproto: read target: %w", err)
		}
		req, err := readLP(r)
		if err != nil {
			return Frame{}, fmt.Errorf("wireproto: read req: %w", err)
		}
		f.Operation.Target, f.Operation.Req = target, req
	case KindReturnOk:
		resp, err := readLP(r)
		if err != nil {
			return Frame{}, fmt.Errorf("wireproto: read resp: %w", err)
		}
		f.Operation.Resp = resp
	case KindReturnErr:
		errKind, err := readLP(r)
		if err != nil {
			return Frame{}, fmt.Errorf("wireproto: read err kind: %w", err)
		}
		errPayload, err := readLP(r)
		if err != nil {
			return Frame{}, fmt.Errorf("wireproto: read err payload: %w", err)
		}
		f.Operation.ErrKind, f.Operation.ErrPayload = string(errKind), errPayload
	default:
		return Frame{}, fmt.Errorf("wireproto: unknown operation kind %d", f.Operation.Kind)
	}
	return f, nil
}

func writeLP(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readLP(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteHandshakePath writes the length-prefixed wasm file path the worker
// reads on startup, the first frame of the control socket handshake before
// any Frame traffic begins.
func WriteHandshakePath(w io.Writer, path string) error {
	return writeLP(w, []byte(path))
}

// ReadHandshakePath reads the length-prefixed wasm file path written by
// WriteHandshakePath.
func ReadHandshakePath(r io.Reader) (string, error) {
	b, err := readLP(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteHandshakeResult writes the length-prefixed msgpack-encoded result of
// loading the worker's module (metadata payload on success, error payload
// otherwise), in place of the original handshake's bincode encoding.
func WriteHandshakeResult(w io.Writer, payload []byte) error {
	return writeLP(w, payload)
}

// ReadHandshakeResult reads the payload written by WriteHandshakeResult.
func ReadHandshakeResult(r io.Reader) ([]byte, error) {
	return readLP(r)
}
