package worker

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/tea-actorx/actorx-go/abiwire"
	"github.com/tea-actorx/actorx-go/actorx"
)

// guestModule wraps one instantiated guest, exposing the four ABI exports
// (abi_init, abi_init_handle, abi_handle, abi_finish_handle) the module's
// wasmguest-built binary exports via //go:wasmexport, plus the guest's
// "alloc" export used to marshal bytes across the memory boundary.
type guestModule struct {
	mod    api.Module
	target actorx.ActorId

	abiInit         api.Function
	abiInitHandle   api.Function
	abiHandle       api.Function
	abiFinishHandle api.Function
}

// instantiateGuest instantiates compiled and resolves its four ABI exports.
// No host import is required: a guest never calls out directly, it instead
// suspends (returning a KindCall abiwire.Operation from abi_finish_handle)
// and waits for the worker to resume it on the next abi_init_handle/
// abi_handle/abi_finish_handle round, exactly mirroring the original
// suspend-by-returning-Pending design.
func instantiateGuest(ctx context.Context, runtime wazero.Runtime, compiled wazero.CompiledModule, target actorx.ActorId) (*guestModule, error) {
	config := wazero.NewModuleConfig().WithStartFunctions()
	mod, err := runtime.InstantiateModule(ctx, compiled, config)
	if err != nil {
		return nil, fmt.Errorf("worker: instantiate guest: %w", err)
	}

	g := &guestModule{mod: mod, target: target}
	for name, slot := range map[string]*api.Function{
		"abi_init":          &g.abiInit,
		"abi_init_handle":   &g.abiInitHandle,
		"abi_handle":        &g.abiHandle,
		"abi_finish_handle": &g.abiFinishHandle,
	} {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return nil, fmt.Errorf("worker: guest module missing export %q", name)
		}
		*slot = fn
	}

	if _, err := g.abiInit.Call(ctx); err != nil {
		return nil, fmt.Errorf("worker: abi_init: %w", err)
	}
	return g, nil
}

// runGuestHandle drives req through the guest's ABI exports to completion,
// servicing any nested calls the guest suspends on via bridge before
// resuming it, exactly as the original worker's per-channel loop feeds a
// ReturnOk/ReturnErr Operation back in after resolving a Call Operation.
func runGuestHandle(ctx context.Context, g *guestModule, bridge HostBridge, caller actorx.ActorId, req []byte) ([]byte, error) {
	op := abiwire.Operation{Kind: abiwire.KindCall, Target: []byte(g.target), Req: req}

	for {
		out, err := stepGuest(ctx, g, op)
		if err != nil {
			return nil, err
		}
		switch out.Kind {
		case abiwire.KindReturnOk:
			return out.Resp, nil
		case abiwire.KindReturnErr:
			return nil, fmt.Errorf("worker: guest actor error: %s", out.ErrMsg)
		case abiwire.KindCall:
			target := actorx.NewActorId(out.Target)
			resp, invokeErr := bridge.Invoke(ctx, caller, target, out.Req)
			if invokeErr != nil {
				op = abiwire.Operation{Kind: abiwire.KindReturnErr, ErrMsg: invokeErr.Error()}
			} else {
				op = abiwire.Operation{Kind: abiwire.KindReturnOk, Resp: resp}
			}
		default:
			return nil, fmt.Errorf("worker: guest produced unknown operation kind %d", out.Kind)
		}
	}
}

func stepGuest(ctx context.Context, g *guestModule, op abiwire.Operation) (abiwire.Operation, error) {
	encoded := abiwire.Encode(op)

	ptr, err := writeGuestBytes(ctx, g.mod, encoded)
	if err != nil {
		return abiwire.Operation{}, fmt.Errorf("worker: write operation: %w", err)
	}

	results, err := g.abiInitHandle.Call(ctx, uint64(ptr), uint64(len(encoded)))
	if err != nil {
		return abiwire.Operation{}, fmt.Errorf("worker: abi_init_handle: %w", err)
	}
	handleID := results[0]

	if _, err := g.abiHandle.Call(ctx, handleID); err != nil {
		return abiwire.Operation{}, fmt.Errorf("worker: abi_handle: %w", err)
	}

	results, err = g.abiFinishHandle.Call(ctx, handleID)
	if err != nil {
		return abiwire.Operation{}, fmt.Errorf("worker: abi_finish_handle: %w", err)
	}
	packed := results[0]
	outPtr, outLen := uint32(packed>>32), uint32(packed)

	outBytes, ok := g.mod.Memory().Read(outPtr, outLen)
	if !ok {
		return abiwire.Operation{}, fmt.Errorf("worker: operation output out of guest memory bounds")
	}

	return abiwire.Decode(outBytes)
}

func writeGuestBytes(ctx context.Context, mod api.Module, data []byte) (uint32, error) {
	alloc := mod.ExportedFunction("alloc")
	if alloc == nil {
		return 0, fmt.Errorf("guest module missing alloc export")
	}
	results, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, err
	}
	ptr := uint32(results[0])
	if len(data) > 0 && !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("write out of guest memory bounds")
	}
	return ptr, nil
}
