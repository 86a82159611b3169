package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingRequest struct {
	Nonce uint64
}

func (pingRequest) TypeID() string { return "codec_test.pingRequest" }

type pongResponse struct {
	Echo uint64
}

func (pongResponse) TypeID() string { return "codec_test.pongResponse" }
func (pongResponse) Price() uint64  { return 7 }

func init() {
	Register(pingRequest{})
	Register(pongResponse{})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pingRequest{Nonce: 42}))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	req, ok := decoded.(*pingRequest)
	require.True(t, ok, "Decode() = %T, want *pingRequest", decoded)
	require.Equal(t, uint64(42), req.Nonce)
}

func TestDecodeUnknownType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLP(&buf, []byte("codec_test.nonexistent")))
	require.NoError(t, writeLP(&buf, []byte{}))
	_, err := Decode(&buf)
	require.True(t, errors.Is(err, ErrUnexpectedType))
}

func TestDecodeIntoMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pingRequest{Nonce: 1}))
	_, err := DecodeInto(&buf, pongResponse{})
	require.True(t, errors.Is(err, ErrTypeIdMismatch))
}

func TestPrice(t *testing.T) {
	require.Equal(t, uint64(7), Price(pongResponse{}))
	require.Equal(t, uint64(0), Price(pingRequest{}), "unpriced type should report 0")
}
