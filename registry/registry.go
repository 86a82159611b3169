// Package registry implements the read-mostly table of actors known to a
// host: native handlers linked into the process, and WASM modules awaiting
// a worker to execute them.
package registry

import (
	"fmt"
	"sync"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/sign"
)

var log = logger.GetOrCreate("actorx/registry")

// Registry is a sync.Map-backed table, chosen for the same read-mostly
// access pattern the original registry's concurrent map targeted: lookups
// vastly outnumber registrations once a host is warmed up.
type Registry struct {
	entries sync.Map // ActorId string -> *actorx.Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// RegisterNative installs a trusted handler under id.
func (r *Registry) RegisterNative(id actorx.ActorId, handler actorx.Handler) error {
	entry := &actorx.Entry{
		Id:     id,
		Kind:   actorx.KindNative,
		Native: handler,
	}
	r.entries.Store(string(id), entry)
	log.Debug("registered native actor", "id", id.String())
	return nil
}

// RegisterWasm installs an untrusted module under id, verifying its
// embedded signature envelope and requiring the signed id to match id.
func (r *Registry) RegisterWasm(id actorx.ActorId, module []byte) error {
	metadata, err := sign.Verify(module)
	if err != nil {
		return fmt.Errorf("registry: verify module for %s: %w", id, err)
	}
	if !actorx.ActorId(metadata.Id).Equal(id) {
		return fmt.Errorf("registry: module signed for %s, registered as %s", actorx.ActorId(metadata.Id), id)
	}
	entry := &actorx.Entry{
		Id:       id,
		Kind:     actorx.KindWasm,
		Metadata: metadata,
		Module:   module,
	}
	r.entries.Store(string(id), entry)
	log.Debug("registered wasm actor", "id", id.String())
	return nil
}

// Lookup reports the kind of actor registered under id.
func (r *Registry) Lookup(id actorx.ActorId) (actorx.ActorKind, bool) {
	entry, ok := r.get(id)
	if !ok {
		return 0, false
	}
	return entry.Kind, true
}

// Metadata returns the signed metadata of the WASM actor registered under
// id. Native actors have no metadata and report ok == false.
func (r *Registry) Metadata(id actorx.ActorId) (actorx.Metadata, bool) {
	entry, ok := r.get(id)
	if !ok || entry.Kind != actorx.KindWasm {
		return actorx.Metadata{}, false
	}
	return entry.Metadata, true
}

// Entry returns the full registry record for id.
func (r *Registry) Entry(id actorx.ActorId) (*actorx.Entry, bool) {
	return r.get(id)
}

// Unregister removes id from the registry.
func (r *Registry) Unregister(id actorx.ActorId) error {
	r.entries.Delete(string(id))
	log.Debug("unregistered actor", "id", id.String())
	return nil
}

func (r *Registry) get(id actorx.ActorId) (*actorx.Entry, bool) {
	v, ok := r.entries.Load(string(id))
	if !ok {
		return nil, false
	}
	return v.(*actorx.Entry), true
}

// Entries returns every registered entry, in no particular order. Intended
// for diagnostics (capability graph rendering, inventory dumps) rather than
// the invocation hot path.
func (r *Registry) Entries() []*actorx.Entry {
	var entries []*actorx.Entry
	r.entries.Range(func(_, v any) bool {
		entries = append(entries, v.(*actorx.Entry))
		return true
	})
	return entries
}
