package hostproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/wireproto"
)

func TestStageModuleWritesModuleBytesToWorkDir(t *testing.T) {
	dir := t.TempDir()
	inv := &Invoker{WorkDir: dir, workers: map[string]*workerConn{}}
	entry := &actorx.Entry{Id: actorx.ActorId("tea:guest"), Module: []byte("wasm-bytes")}

	path, err := inv.stageModule(entry)
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, entry.Module, got)
}

// newConnectedWorkerConn builds a workerConn whose Supervisor control socket
// is one end of a real Unix socketpair, the other end standing in for the
// worker process's side of the connection without spawning one.
func newConnectedWorkerConn(t *testing.T) (*workerConn, *workerConn) {
	t.Helper()
	hostConn, workerSide, err := socketPair()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = hostConn.Close()
		_ = workerSide.Close()
	})

	wc := &workerConn{
		supervisor: &Supervisor{conn: hostConn},
		pending:    map[uint64]chan wireproto.Frame{},
	}
	workerFacing := &workerConn{
		supervisor: &Supervisor{conn: workerSide},
		pending:    map[uint64]chan wireproto.Frame{},
	}
	return wc, workerFacing
}

func TestWorkerConnReadLoopRoutesFrameToPendingChannel(t *testing.T) {
	wc, workerFacing := newConnectedWorkerConn(t)
	go wc.readLoop()

	respCh := make(chan wireproto.Frame, 1)
	wc.pendingMu.Lock()
	wc.pending[42] = respCh
	wc.pendingMu.Unlock()

	require.NoError(t, wireproto.WriteFrame(workerFacing.supervisor.Conn(), wireproto.Frame{
		ChannelId: 42,
		Gas:       5,
		Operation: wireproto.Operation{Kind: wireproto.KindReturnOk, Resp: []byte("ok")},
	}))

	frame := <-respCh
	require.Equal(t, uint64(42), frame.ChannelId)
	require.Equal(t, "ok", string(frame.Operation.Resp))
}

func TestWorkerConnDrainPendingUnblocksWaiters(t *testing.T) {
	wc, _ := newConnectedWorkerConn(t)

	respCh := make(chan wireproto.Frame, 1)
	wc.pendingMu.Lock()
	wc.pending[7] = respCh
	wc.pendingMu.Unlock()

	wc.drainPending()

	frame := <-respCh
	require.Equal(t, wireproto.KindReturnErr, frame.Operation.Kind)
	require.Equal(t, "worker_crashed", frame.Operation.ErrKind)

	wc.pendingMu.Lock()
	defer wc.pendingMu.Unlock()
	require.Empty(t, wc.pending)
}

func TestWorkerConnReadLoopDrainsPendingOnSocketClose(t *testing.T) {
	wc, workerFacing := newConnectedWorkerConn(t)
	go wc.readLoop()

	respCh := make(chan wireproto.Frame, 1)
	wc.pendingMu.Lock()
	wc.pending[1] = respCh
	wc.pendingMu.Unlock()

	require.NoError(t, workerFacing.supervisor.Conn().Close())

	frame := <-respCh
	require.Equal(t, wireproto.KindReturnErr, frame.Operation.Kind)
	require.Equal(t, "worker_crashed", frame.Operation.ErrKind)
}
