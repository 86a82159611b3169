// Package hostproc spawns and supervises worker processes: one OS process
// per WASM actor, communicating over a control socket, matching the crash
// isolation boundary the invocation engine's worker-per-actor design
// depends on.
package hostproc

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/denisbrodbeck/machineid"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/tea-actorx/actorx-go/wireproto"
)

var log = logger.GetOrCreate("actorx/hostproc")

// Supervisor launches and owns one worker process for a single WASM actor.
type Supervisor struct {
	// WorkerBinary is the path to the worker executable. Falls back to the
	// ACTORX_WORKER_BIN environment variable when empty.
	WorkerBinary string
	// HardwareEnclave selects a named-socket handshake over stdin instead
	// of passing the control socket as an inherited fd, for launchers
	// (certain enclave environments) that cannot pass fds across the
	// process boundary.
	HardwareEnclave bool

	mu       sync.Mutex
	conn     *net.UnixConn
	cmd      *exec.Cmd
	listener *net.UnixListener // only set in HardwareEnclave mode
}

// Spawn starts the worker process for wasmPath, performs the control-socket
// handshake, and returns the worker's handshake response: the msgpack-
// encoded Result<Metadata, Error> the worker reports after attempting to
// load and verify wasmPath.
func (s *Supervisor) Spawn(ctx context.Context, wasmPath string) ([]byte, error) {
	binary := s.WorkerBinary
	if binary == "" {
		binary = os.Getenv("ACTORX_WORKER_BIN")
	}
	if binary == "" {
		return nil, fmt.Errorf("hostproc: no worker binary configured (set ACTORX_WORKER_BIN)")
	}

	cmd := exec.CommandContext(ctx, binary)
	cmd.Stderr = os.Stderr

	var hostConn *net.UnixConn
	var err error
	if s.HardwareEnclave {
		hostConn, err = s.spawnViaNamedSocket(cmd)
	} else {
		hostConn, err = s.spawnViaExtraFile(cmd)
	}
	if err != nil {
		return nil, err
	}

	if id, idErr := machineid.ID(); idErr == nil {
		log.Debug("spawned worker", "machine_id", id, "wasm", wasmPath)
	}

	s.mu.Lock()
	s.conn = hostConn
	s.cmd = cmd
	s.mu.Unlock()

	if err := wireproto.WriteHandshakePath(hostConn, wasmPath); err != nil {
		return nil, fmt.Errorf("hostproc: send wasm path: %w", err)
	}
	result, err := wireproto.ReadHandshakeResult(hostConn)
	if err != nil {
		return nil, fmt.Errorf("hostproc: read handshake result: %w", err)
	}
	return result, nil
}

// spawnViaExtraFile passes the worker its half of a socketpair as an
// inherited file descriptor, the Go analogue of the original's
// command_fds/SCM_RIGHTS fd-passing mechanism: the first entry of
// cmd.ExtraFiles lands on fd 3 in the child, the conventional slot the
// worker binary expects its control socket to already be open on.
func (s *Supervisor) spawnViaExtraFile(cmd *exec.Cmd) (*net.UnixConn, error) {
	hostConn, workerConn, err := socketPair()
	if err != nil {
		return nil, fmt.Errorf("hostproc: create control socket: %w", err)
	}

	workerFile, err := workerConn.File()
	if err != nil {
		_ = hostConn.Close()
		_ = workerConn.Close()
		return nil, fmt.Errorf("hostproc: dup worker socket: %w", err)
	}
	cmd.ExtraFiles = []*os.File{workerFile}

	if err := cmd.Start(); err != nil {
		_ = workerFile.Close()
		_ = workerConn.Close()
		_ = hostConn.Close()
		return nil, fmt.Errorf("hostproc: start worker: %w", err)
	}
	_ = workerFile.Close()
	_ = workerConn.Close()
	return hostConn, nil
}

// spawnViaNamedSocket listens on a fresh abstract-free named Unix socket,
// passes its path to the child in ACTORX_WORKER_SOCKET_PATH (the variable
// cmd/actorx-worker dials), also writes it (length-prefixed) to the child's
// stdin, and accepts the resulting connection once the child dials back —
// the handshake used when fd inheritance is unavailable.
func (s *Supervisor) spawnViaNamedSocket(cmd *exec.Cmd) (*net.UnixConn, error) {
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("actorx-worker-%d.sock", os.Getpid()))
	_ = os.Remove(socketPath)

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("hostproc: listen on %s: %w", socketPath, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("hostproc: open worker stdin: %w", err)
	}
	cmd.Env = append(os.Environ(), "ACTORX_WORKER_SOCKET_PATH="+socketPath)

	if err := cmd.Start(); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("hostproc: start worker: %w", err)
	}

	if err := wireproto.WriteHandshakePath(stdin, socketPath); err != nil {
		return nil, fmt.Errorf("hostproc: write socket path to stdin: %w", err)
	}
	_ = stdin.Close()

	conn, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("hostproc: accept worker connection: %w", err)
	}
	return conn.(*net.UnixConn), nil
}

// Conn returns the supervisor's control socket, for issuing wireproto
// frames once the handshake has completed.
func (s *Supervisor) Conn() *net.UnixConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Wait blocks until the worker process exits, reporting ErrWorkerCrashed-
// shaped context via the returned error when it exits abnormally.
func (s *Supervisor) Wait() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil {
		return fmt.Errorf("hostproc: worker not started")
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("hostproc: worker exited abnormally: %w", err)
	}
	return nil
}

// Kill terminates the worker process immediately; Invoker calls it when a
// worker's handshake is rejected and when the Invoker is closed.
func (s *Supervisor) Kill() error {
	s.mu.Lock()
	cmd := s.cmd
	conn := s.conn
	listener := s.listener
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	if listener != nil {
		_ = listener.Close()
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// socketPair creates a connected pair of Unix domain sockets: one retained
// by the host, one duplicated into the child's ExtraFiles.
func socketPair() (*net.UnixConn, *net.UnixConn, error) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	hostConn, err := fdToUnixConn(fds[0], "actorx-host-socket")
	if err != nil {
		return nil, nil, err
	}
	workerConn, err := fdToUnixConn(fds[1], "actorx-worker-socket")
	if err != nil {
		_ = hostConn.Close()
		return nil, nil, err
	}
	return hostConn, workerConn, nil
}

func fdToUnixConn(fd int, name string) (*net.UnixConn, error) {
	file := os.NewFile(uintptr(fd), name)
	conn, err := net.FileConn(file)
	_ = file.Close()
	if err != nil {
		return nil, fmt.Errorf("wrap socketpair fd: %w", err)
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("socketpair fd did not yield a unix conn")
	}
	return unixConn, nil
}
