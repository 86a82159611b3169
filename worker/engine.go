// Package worker hosts untrusted WASM modules inside a wazero runtime: one
// Engine per worker process, one guest instance per active channel, gas
// metering on every guest function call, and an idle reaper that tears down
// instances that have gone quiet, matching the worker supervisor's
// responsibilities.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/config"
)

var log = logger.GetOrCreate("actorx/worker")

// HostBridge routes a nested invocation made from inside a guest module back
// out to the host dispatcher. *dispatcher.Dispatcher satisfies this
// interface already, since its Invoke method has the identical signature.
type HostBridge interface {
	Invoke(ctx context.Context, caller, target actorx.ActorId, req []byte) ([]byte, error)
}

// Engine is a single worker process's WASM execution environment.
type Engine struct {
	runtime  wazero.Runtime
	cache    *moduleCache
	schedule config.GasSchedule
	bridge   HostBridge

	maxLive int
	mu      sync.Mutex
	live    map[string]*channelInstance
}

type channelInstance struct {
	module     *guestModule
	lastActive time.Time
}

// NewEngine constructs an Engine configured from cfg, wiring bridge as the
// callback used to service nested invocations a guest issues by suspending
// with a KindCall operation from abi_finish_handle.
func NewEngine(ctx context.Context, cfg config.HostConfig, bridge HostBridge) (*Engine, error) {
	runtimeConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("worker: instantiate wasi: %w", err)
	}

	cache, err := newModuleCache(runtime, cfg.MaxLiveInstances)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	e := &Engine{
		runtime:  runtime,
		cache:    cache,
		schedule: cfg.GasSchedule,
		bridge:   bridge,
		maxLive:  cfg.MaxLiveInstances,
		live:     map[string]*channelInstance{},
	}
	return e, nil
}

// Close releases the underlying wazero runtime and every instance it holds.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Invoke runs req against entry's compiled module on the channel identified
// by (caller, target), creating a fresh guest instance on first use and
// reusing it on subsequent calls for the same channel, matching the
// original worker's one-instance-per-channel rule.
func (e *Engine) Invoke(ctx context.Context, entry *actorx.Entry, caller, target actorx.ActorId, req []byte) (resp []byte, gasUsed uint64, err error) {
	gas, gasErr := callctx.GetGas(ctx)
	if gasErr != nil {
		return nil, 0, gasErr
	}

	listenerCtx := experimental.WithFunctionListenerFactory(ctx, &gasListenerFactory{schedule: e.schedule})

	defer func() {
		if r := recover(); r != nil {
			if exhausted, ok := r.(gasExhausted); ok {
				err = exhausted.cause
				return
			}
			panic(r)
		}
	}()

	instance, instErr := e.instanceFor(listenerCtx, entry, caller, target)
	if instErr != nil {
		return nil, 0, instErr
	}

	before := gas
	resp, err = runGuestHandle(listenerCtx, instance, e.bridge, caller, req)
	after, gasErr := callctx.GetGas(listenerCtx)
	if gasErr == nil {
		gasUsed = before - after
	}
	return resp, gasUsed, err
}

func (e *Engine) instanceFor(ctx context.Context, entry *actorx.Entry, caller, target actorx.ActorId) (*guestModule, error) {
	key := string(caller) + "\x00" + string(target)

	e.mu.Lock()
	if existing, ok := e.live[key]; ok {
		existing.lastActive = time.Now()
		e.mu.Unlock()
		return existing.module, nil
	}
	e.mu.Unlock()

	compiled, err := e.cache.compiled(ctx, entry.Module)
	if err != nil {
		return nil, err
	}

	module, err := instantiateGuest(ctx, e.runtime, compiled, target)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.live[key] = &channelInstance{module: module, lastActive: time.Now()}
	e.mu.Unlock()

	log.Trace("instantiated guest module", "caller", caller.String(), "target", target.String())
	return module, nil
}

// ReapIdle tears down every channel instance that has been idle longer than
// idleFor, matching the auto-deactivation window configured on the host.
func (e *Engine) ReapIdle(ctx context.Context, idleFor time.Duration) {
	cutoff := time.Now().Add(-idleFor)
	e.mu.Lock()
	var stale []string
	for key, inst := range e.live {
		if inst.lastActive.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		inst := e.live[key]
		delete(e.live, key)
		_ = inst.module.mod.Close(ctx)
	}
	e.mu.Unlock()
	if len(stale) > 0 {
		log.Debug("reaped idle guest instances", "count", len(stale))
	}
}

// StartReaper runs ReapIdle on interval until ctx is cancelled. Neither
// hostproc nor cmd/actorx-worker starts it.
func (e *Engine) StartReaper(ctx context.Context, interval, idleFor time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.ReapIdle(ctx, idleFor)
			}
		}
	}()
}
