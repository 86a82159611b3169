package wireproto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameCall(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{
		ChannelId: 7,
		Gas:       1000,
		Operation: Operation{Kind: KindCall, Target: []byte("tea:caller"), Req: []byte("payload")},
	}
	require.NoError(t, WriteFrame(&buf, in))
	out, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, in.ChannelId, out.ChannelId)
	require.Equal(t, in.Gas, out.Gas)
	require.Equal(t, "tea:caller", string(out.Operation.Target))
	require.Equal(t, "payload", string(out.Operation.Req))
}

func TestWriteReadFrameReturnErr(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{
		ChannelId: 1,
		Gas:       5,
		Operation: Operation{Kind: KindReturnErr, ErrKind: "gas_exhausted", ErrPayload: []byte("out of gas")},
	}
	require.NoError(t, WriteFrame(&buf, in))
	out, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "gas_exhausted", out.Operation.ErrKind)
	require.Equal(t, "out of gas", string(out.Operation.ErrPayload))
}

func TestHandshakePathRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHandshakePath(&buf, "/tmp/actor.wasm"))
	path, err := ReadHandshakePath(&buf)
	require.NoError(t, err)
	require.Equal(t, "/tmp/actor.wasm", path)
}

func TestHandshakeResultRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("msgpack-encoded-handshake-result")
	require.NoError(t, WriteHandshakeResult(&buf, payload))
	got, err := ReadHandshakeResult(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
