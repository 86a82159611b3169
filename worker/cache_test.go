package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// emptyModule is the smallest valid WASM binary wazero will compile: the
// magic+version header with no sections.
func emptyModule() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func TestModuleCacheReturnsSameCompiledModuleForSameBytes(t *testing.T) {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)

	cache, err := newModuleCache(runtime, 0)
	require.NoError(t, err)

	wasm := emptyModule()
	first, err := cache.compiled(ctx, wasm)
	require.NoError(t, err)
	second, err := cache.compiled(ctx, wasm)
	require.NoError(t, err)
	require.Same(t, first, second, "a second lookup of identical module bytes should hit the cache")
}

func TestModuleCacheCompilesDistinctModulesSeparately(t *testing.T) {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)

	cache, err := newModuleCache(runtime, 0)
	require.NoError(t, err)

	a, err := cache.compiled(ctx, emptyModule())
	require.NoError(t, err)
	withCustomSection := append(append([]byte{}, emptyModule()...), 0x00, 0x01, 0x00)
	b, err := cache.compiled(ctx, withCustomSection)
	require.NoError(t, err)
	require.NotSame(t, a, b)
}

func TestModuleCacheRejectsInvalidWasmBytes(t *testing.T) {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)

	cache, err := newModuleCache(runtime, 0)
	require.NoError(t, err)

	_, err = cache.compiled(ctx, []byte("not wasm"))
	require.Error(t, err)
}

func TestContentHashDiffersOnSingleByteChange(t *testing.T) {
	a := contentHash(emptyModule())
	modified := append([]byte{}, emptyModule()...)
	modified[4] = 0x02
	b := contentHash(modified)
	require.NotEqual(t, a, b)
}
