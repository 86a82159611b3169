package hostproc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/wireproto"
)

var invokerLog = logger.GetOrCreate("actorx/hostproc-invoker")

// Invoker drives a WASM actor's invocations through its own worker process,
// satisfying dispatcher.WasmInvoker from the host side of the control
// socket. One worker process, and one *workerConn multiplexing its frames,
// is kept alive per target actor for as long as it stays registered.
type Invoker struct {
	WorkerBinary    string
	HardwareEnclave bool
	WorkDir         string

	mu      sync.Mutex
	workers map[string]*workerConn
}

// NewInvoker returns an Invoker that spawns worker processes with binary.
func NewInvoker(binary string) *Invoker {
	return &Invoker{WorkerBinary: binary, workers: map[string]*workerConn{}}
}

type workerConn struct {
	supervisor *Supervisor

	writeMu sync.Mutex
	nextID  atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan wireproto.Frame
}

// Invoke satisfies dispatcher.WasmInvoker: it spawns (or reuses) the worker
// process backing entry, sends a Call frame carrying the caller's remaining
// gas, and blocks until the matching ReturnOk/ReturnErr frame arrives.
func (inv *Invoker) Invoke(ctx context.Context, entry *actorx.Entry, caller, target actorx.ActorId, req []byte) ([]byte, uint64, error) {
	wc, err := inv.workerFor(ctx, entry)
	if err != nil {
		return nil, 0, err
	}

	gas, gasErr := callctx.GetGas(ctx)
	if gasErr != nil {
		gas = 0
	}

	channelID := wc.nextID.Add(1)
	respCh := make(chan wireproto.Frame, 1)
	wc.pendingMu.Lock()
	wc.pending[channelID] = respCh
	wc.pendingMu.Unlock()
	defer func() {
		wc.pendingMu.Lock()
		delete(wc.pending, channelID)
		wc.pendingMu.Unlock()
	}()

	out := wireproto.Frame{
		ChannelId: channelID,
		Gas:       gas,
		Operation: wireproto.Operation{Kind: wireproto.KindCall, Target: []byte(caller), Req: req},
	}
	wc.writeMu.Lock()
	writeErr := wireproto.WriteFrame(wc.supervisor.Conn(), out)
	wc.writeMu.Unlock()
	if writeErr != nil {
		return nil, 0, fmt.Errorf("hostproc: write call frame: %w", writeErr)
	}

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case frame := <-respCh:
		gasUsed := uint64(0)
		if gas > frame.Gas {
			gasUsed = gas - frame.Gas
		}
		if frame.Operation.Kind == wireproto.KindReturnErr {
			return nil, gasUsed, fmt.Errorf("actor %s: %s", target.String(), string(frame.Operation.ErrPayload))
		}
		return frame.Operation.Resp, gasUsed, nil
	}
}

// workerFor returns the live worker process for entry.Id, spawning one (and
// writing its signed module to a scratch file the worker reads at startup)
// on first use.
func (inv *Invoker) workerFor(ctx context.Context, entry *actorx.Entry) (*workerConn, error) {
	key := string(entry.Id)

	inv.mu.Lock()
	wc, ok := inv.workers[key]
	inv.mu.Unlock()
	if ok {
		return wc, nil
	}

	wasmPath, err := inv.stageModule(entry)
	if err != nil {
		return nil, err
	}

	supervisor := &Supervisor{WorkerBinary: inv.WorkerBinary, HardwareEnclave: inv.HardwareEnclave}
	handshake, err := supervisor.Spawn(ctx, wasmPath)
	if err != nil {
		return nil, fmt.Errorf("hostproc: spawn worker for %s: %w", entry.Id.String(), err)
	}
	if _, handshakeErr := actorx.DecodeHandshakeResult(handshake); handshakeErr != nil {
		_ = supervisor.Kill()
		return nil, fmt.Errorf("hostproc: worker rejected module for %s: %w", entry.Id.String(), handshakeErr)
	}

	wc = &workerConn{supervisor: supervisor, pending: map[uint64]chan wireproto.Frame{}}
	go wc.readLoop()

	inv.mu.Lock()
	inv.workers[key] = wc
	inv.mu.Unlock()
	return wc, nil
}

// stageModule writes entry's signed module bytes to a scratch file inside
// WorkDir (or the OS temp dir), the path the worker process is handed over
// the control-socket handshake.
func (inv *Invoker) stageModule(entry *actorx.Entry) (string, error) {
	dir := inv.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("actorx-module-%s.wasm", entry.Id.String()))
	if err := os.WriteFile(path, entry.Module, 0o644); err != nil {
		return "", fmt.Errorf("hostproc: stage module: %w", err)
	}
	return path, nil
}

// readLoop is the single reader for a worker's control socket, fanning
// frames out to the channel waiting on each one's ChannelId.
func (wc *workerConn) readLoop() {
	for {
		frame, err := wireproto.ReadFrame(wc.supervisor.Conn())
		if err != nil {
			invokerLog.Debug("worker control socket closed", "error", err)
			wc.drainPending()
			return
		}
		wc.pendingMu.Lock()
		ch, ok := wc.pending[frame.ChannelId]
		wc.pendingMu.Unlock()
		if !ok {
			continue
		}
		ch <- frame
	}
}

// drainPending unblocks every still-waiting Invoke call with a synthetic
// crash response once the control socket has gone away, matching the
// worker-crash isolation the supervisor exists to contain.
func (wc *workerConn) drainPending() {
	wc.pendingMu.Lock()
	defer wc.pendingMu.Unlock()
	for id, ch := range wc.pending {
		ch <- wireproto.Frame{
			Operation: wireproto.Operation{Kind: wireproto.KindReturnErr, ErrKind: "worker_crashed", ErrPayload: []byte(actorx.ErrWorkerCrashed.Error())},
		}
		delete(wc.pending, id)
	}
}

// Close terminates every live worker process the Invoker owns.
func (inv *Invoker) Close() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for id, wc := range inv.workers {
		_ = wc.supervisor.Kill()
		delete(inv.workers, id)
	}
}
