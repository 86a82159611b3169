// Package codec implements the message envelope every invocation request
// and response travels in: a length-prefixed type id followed by a
// length-prefixed msgpack payload, mirroring the type-tagged wire format
// described for the invocation engine's message layer.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/vmihailenco/msgpack/v5"
)

var log = logger.GetOrCreate("actorx/codec")

// ErrTypeIdMismatch signals that a decoded envelope's type id does not match
// the type the caller asked to decode into.
var ErrTypeIdMismatch = errors.New("codec: type id mismatch")

// ErrUnexpectedType signals that a type id on the wire has no registered
// Go type at all.
var ErrUnexpectedType = errors.New("codec: unexpected type id")

// Typed is implemented by every value that can travel as a message payload.
// TypeID is a stable, package-qualified string baked in at registration time
// (Go has no const generics, so this stands in for the derive-macro that
// folds a type's generic arguments into its wire identifier).
type Typed interface {
	TypeID() string
}

// Priced is optionally implemented by a Typed value to report its gas cost.
// A value that does not implement Priced is free, matching the "zero cost
// unless priced" default.
type Priced interface {
	Price() uint64
}

var registryMu sync.RWMutex
var registry = map[string]reflect.Type{}

// Register associates a TypeID with the concrete Go type of sample, so that
// Decode can reconstruct values of that type from the wire. Call it from an
// init() for every Typed request and response type.
func Register(sample Typed) {
	registryMu.Lock()
	defer registryMu.Unlock()
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	registry[sample.TypeID()] = t
	log.Trace("registered codec type", "id", sample.TypeID())
}

// Encode writes a length-prefixed type id followed by a length-prefixed
// msgpack payload for v into w.
func Encode(w io.Writer, v Typed) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("codec: marshal payload: %w", err)
	}
	if err := writeLP(w, []byte(v.TypeID())); err != nil {
		return fmt.Errorf("codec: write type id: %w", err)
	}
	if err := writeLP(w, payload); err != nil {
		return fmt.Errorf("codec: write payload: %w", err)
	}
	return nil
}

// Decode reads a length-prefixed envelope from r and unmarshals its payload
// into a freshly allocated value of the type registered under the wire type
// id, returning that value as a Typed interface.
func Decode(r io.Reader) (Typed, error) {
	typeID, err := readLP(r)
	if err != nil {
		return nil, fmt.Errorf("codec: read type id: %w", err)
	}
	payload, err := readLP(r)
	if err != nil {
		return nil, fmt.Errorf("codec: read payload: %w", err)
	}

	registryMu.RLock()
	goType, ok := registry[string(typeID)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, typeID)
	}

	value := reflect.New(goType).Interface()
	if err := msgpack.Unmarshal(payload, value); err != nil {
		return nil, fmt.Errorf("codec: unmarshal payload: %w", err)
	}
	typed, ok := value.(Typed)
	if !ok {
		return nil, fmt.Errorf("%w: %q does not implement Typed", ErrUnexpectedType, typeID)
	}
	return typed, nil
}

// DecodeInto reads an envelope and verifies its type id matches want's,
// returning ErrTypeIdMismatch otherwise. Used by callers that already know
// the expected response type statically.
func DecodeInto(r io.Reader, want Typed) (Typed, error) {
	typed, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if typed.TypeID() != want.TypeID() {
		return nil, fmt.Errorf("%w: got %q want %q", ErrTypeIdMismatch, typed.TypeID(), want.TypeID())
	}
	return typed, nil
}

// Price returns v's gas price, or 0 when v does not implement Priced.
func Price(v Typed) uint64 {
	if priced, ok := v.(Priced); ok {
		return priced.Price()
	}
	return 0
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
