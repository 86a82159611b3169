// Command actorx-worker is the per-actor worker process spawned by
// hostproc.Supervisor: it receives a WASM module path over its control
// socket, compiles and verifies the module, and serves invocations
// multiplexed over that same socket until the host tears it down.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
	"github.com/tea-actorx/actorx-go/config"
	"github.com/tea-actorx/actorx-go/registry"
	"github.com/tea-actorx/actorx-go/sign"
	"github.com/tea-actorx/actorx-go/wireproto"
	"github.com/tea-actorx/actorx-go/worker"
)

var log = logger.GetOrCreate("actorx/worker-main")

// workerSocketFD is the conventional fd a hostproc.Supervisor running in
// its default (non-enclave) mode leaves the control socket open on.
const workerSocketFD = 3

func main() {
	if err := run(); err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	conn, err := openControlSocket()
	if err != nil {
		return fmt.Errorf("open control socket: %w", err)
	}
	defer conn.Close()

	wasmPath, err := wireproto.ReadHandshakePath(conn)
	if err != nil {
		return fmt.Errorf("read wasm path: %w", err)
	}

	module, loadErr := os.ReadFile(wasmPath)
	var metadata actorx.Metadata
	var handshakeErr error
	if loadErr != nil {
		handshakeErr = fmt.Errorf("read module: %w", loadErr)
	} else {
		metadata, handshakeErr = sign.Verify(module)
	}

	handshakeResult, encodeErr := actorx.EncodeHandshakeResult(metadata, handshakeErr)
	if encodeErr != nil {
		return fmt.Errorf("encode handshake result: %w", encodeErr)
	}
	if err := wireproto.WriteHandshakeResult(conn, handshakeResult); err != nil {
		return fmt.Errorf("write handshake result: %w", err)
	}
	if handshakeErr != nil {
		return handshakeErr
	}

	cfg := config.Default()
	reg := registry.New()
	if err := reg.RegisterWasm(actorx.ActorId(metadata.Id), module); err != nil {
		return fmt.Errorf("register loaded module: %w", err)
	}

	engine, err := worker.NewEngine(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer engine.Close(ctx)

	return serve(ctx, conn, reg, engine, actorx.ActorId(metadata.Id))
}

// serve reads frames off conn, dispatching each to a per-channel goroutine
// exactly as the original worker's serve loop multiplexes by channel id.
func serve(ctx context.Context, conn net.Conn, reg *registry.Registry, engine *worker.Engine, self actorx.ActorId) error {
	var writeMu sync.Mutex
	channels := map[uint64]chan wireproto.Frame{}
	var channelsMu sync.Mutex

	entry, _ := reg.Entry(self)

	for {
		frame, err := wireproto.ReadFrame(conn)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		channelsMu.Lock()
		ch, ok := channels[frame.ChannelId]
		if !ok {
			ch = make(chan wireproto.Frame, 8)
			channels[frame.ChannelId] = ch
			go serveChannel(ctx, ch, &writeMu, conn, engine, entry, self)
		}
		channelsMu.Unlock()
		ch <- frame
	}
}

func serveChannel(ctx context.Context, in <-chan wireproto.Frame, writeMu *sync.Mutex, conn net.Conn, engine *worker.Engine, entry *actorx.Entry, self actorx.ActorId) {
	for frame := range in {
		if frame.Operation.Kind != wireproto.KindCall {
			continue
		}
		caller := actorx.NewActorId(frame.Operation.Target)
		gasCtx := callctx.WithGas(ctx)
		_ = callctx.SetGas(gasCtx, frame.Gas)
		resp, gasUsed, err := engine.Invoke(gasCtx, entry, caller, self, frame.Operation.Req)

		out := wireproto.Frame{ChannelId: frame.ChannelId, Gas: frame.Gas - gasUsed}
		if err != nil {
			out.Operation = wireproto.Operation{Kind: wireproto.KindReturnErr, ErrKind: "error", ErrPayload: []byte(err.Error())}
		} else {
			out.Operation = wireproto.Operation{Kind: wireproto.KindReturnOk, Resp: resp}
		}

		writeMu.Lock()
		_ = wireproto.WriteFrame(conn, out)
		writeMu.Unlock()
	}
}

func openControlSocket() (net.Conn, error) {
	if path := os.Getenv("ACTORX_WORKER_SOCKET_PATH"); path != "" {
		return net.Dial("unix", path)
	}
	file := os.NewFile(uintptr(workerSocketFD), "actorx-control-socket")
	conn, err := net.FileConn(file)
	_ = file.Close()
	return conn, err
}
