// Package actorx holds the core types shared by every other package in this
// module: actor identity, signed module metadata, the calling stack, and the
// sentinel errors raised by the invocation engine.
package actorx

import (
	"bytes"
	"encoding/hex"
	"unicode/utf8"
)

// ActorId is an opaque byte-string identity, compared by content. Unlike the
// Rust original there is no Static/Shared split: a Go []byte is already a
// reference into shared backing storage, so the "storage economy" concern
// the split existed for does not apply here.
type ActorId []byte

// NewActorId copies value into a fresh ActorId.
func NewActorId(value []byte) ActorId {
	id := make(ActorId, len(value))
	copy(id, value)
	return id
}

// Equal reports whether two actor ids refer to the same actor.
func (id ActorId) Equal(other ActorId) bool {
	return bytes.Equal(id, other)
}

// String renders the id as UTF-8 when valid, otherwise as a '#'-prefixed hex
// dump, matching the display rule of the original ActorId.
func (id ActorId) String() string {
	if isValidUTF8(id) {
		return string(id)
	}
	return "#" + hex.EncodeToString(id)
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// Tappstore is the platform's well-known registry actor id, implicitly
// permitted in every actor's claim set (§3 invariant 3).
var Tappstore = ActorId("tea:tappstore")

// Claim is a single permission asserted by a module's signed metadata.
type Claim struct {
	// Kind selects which field of Claim is populated.
	Kind ClaimKind
	// Access is the target actor id this module may invoke, valid when
	// Kind == ClaimActorAccess.
	Access ActorId
	// TokenId is a 160-bit token identifier, valid when Kind == ClaimTokenId.
	TokenId [20]byte
}

// ClaimKind distinguishes the two shapes a Claim may take.
type ClaimKind int

const (
	// ClaimActorAccess grants permission to invoke another actor.
	ClaimActorAccess ClaimKind = iota
	// ClaimTokenId associates the module with a 160-bit token id.
	ClaimTokenId
)

// Metadata is the signed descriptor embedded in a WASM module's custom
// section (§3, §6).
type Metadata struct {
	Id     ActorId
	Signer []byte
	Claims []Claim
}

// GetTokenId returns the first ClaimTokenId claim, if any.
func (m *Metadata) GetTokenId() ([20]byte, bool) {
	for _, c := range m.Claims {
		if c.Kind == ClaimTokenId {
			return c.TokenId, true
		}
	}
	return [20]byte{}, false
}

// HasAccess reports whether the metadata grants permission to invoke target.
func (m *Metadata) HasAccess(target ActorId) bool {
	for _, c := range m.Claims {
		if c.Kind == ClaimActorAccess && c.Access.Equal(target) {
			return true
		}
	}
	return false
}

// ActorKind distinguishes a registry entry's execution strategy.
type ActorKind int

const (
	// KindNative denotes a trusted handler linked into the host process.
	KindNative ActorKind = iota
	// KindWasm denotes an untrusted module isolated in a worker process.
	KindWasm
)
