package hostproc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSocketPairIsConnectedBothWays(t *testing.T) {
	host, worker, err := socketPair()
	require.NoError(t, err)
	defer host.Close()
	defer worker.Close()

	_, err = host.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := worker.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	_, err = worker.Write([]byte("pong"))
	require.NoError(t, err)
	n, err = host.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))
}

func TestSupervisorWaitWithoutSpawnReturnsError(t *testing.T) {
	s := &Supervisor{}
	err := s.Wait()
	require.Error(t, err)
}

func TestSupervisorKillWithoutSpawnIsANoop(t *testing.T) {
	s := &Supervisor{}
	require.NoError(t, s.Kill())
}

func TestSupervisorSpawnRequiresWorkerBinary(t *testing.T) {
	s := &Supervisor{}
	t.Setenv("ACTORX_WORKER_BIN", "")
	_, err := s.Spawn(context.Background(), "/tmp/does-not-matter.wasm")
	require.Error(t, err)
}
