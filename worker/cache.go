package worker

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tetratelabs/wazero"
	"golang.org/x/crypto/blake2b"
)

// moduleCache memoizes compiled WASM modules by content hash, so repeated
// invocations of the same module across channels and actor instances skip
// recompilation, mirroring the teacher's own compiled-instance reuse for a
// given contract code hash.
type moduleCache struct {
	runtime wazero.Runtime
	cache   *lru.Cache
}

func newModuleCache(runtime wazero.Runtime, size int) (*moduleCache, error) {
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("worker: create module cache: %w", err)
	}
	return &moduleCache{runtime: runtime, cache: cache}, nil
}

func contentHash(module []byte) [32]byte {
	return blake2b.Sum256(module)
}

// compiled returns the CompiledModule for wasm, compiling and caching it on
// first use.
func (c *moduleCache) compiled(ctx context.Context, wasm []byte) (wazero.CompiledModule, error) {
	key := contentHash(wasm)
	if v, ok := c.cache.Get(key); ok {
		return v.(wazero.CompiledModule), nil
	}
	compiled, err := c.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("worker: compile module: %w", err)
	}
	c.cache.Add(key, compiled)
	return compiled, nil
}
