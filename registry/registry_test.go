package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/actorx"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, req []byte) ([]byte, error) { return req, nil }

func TestRegisterAndLookupNative(t *testing.T) {
	r := New()
	id := actorx.ActorId("tea:echo")
	require.NoError(t, r.RegisterNative(id, echoHandler{}))

	kind, ok := r.Lookup(id)
	require.True(t, ok)
	require.Equal(t, actorx.KindNative, kind)

	entry, ok := r.Entry(id)
	require.True(t, ok)
	require.NotNil(t, entry.Native)
}

func TestLookupUnregisteredActor(t *testing.T) {
	r := New()
	_, ok := r.Lookup(actorx.ActorId("tea:missing"))
	require.False(t, ok)
}

func TestUnregisterRemovesEntry(t *testing.T) {
	r := New()
	id := actorx.ActorId("tea:echo")
	require.NoError(t, r.RegisterNative(id, echoHandler{}))
	require.NoError(t, r.Unregister(id))
	_, ok := r.Lookup(id)
	require.False(t, ok, "expected actor to be gone after Unregister")
}

func TestRegisterWasmRejectsUnsignedModule(t *testing.T) {
	r := New()
	err := r.RegisterWasm(actorx.ActorId("tea:guest"), []byte("not a real wasm module"))
	require.Error(t, err)
}

func TestEntriesListsEveryRegisteredActor(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterNative(actorx.ActorId("tea:a"), echoHandler{}))
	require.NoError(t, r.RegisterNative(actorx.ActorId("tea:b"), echoHandler{}))

	entries := r.Entries()
	require.Len(t, entries, 2)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Id.String())
	}
	require.ElementsMatch(t, []string{"tea:a", "tea:b"}, ids)
}
