package abiwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCall(t *testing.T) {
	op := Operation{Kind: KindCall, Target: []byte("tea:target"), Req: []byte("payload")}
	decoded, err := Decode(Encode(op))
	require.NoError(t, err)
	require.Equal(t, KindCall, decoded.Kind)
	require.Equal(t, "tea:target", string(decoded.Target))
	require.Equal(t, "payload", string(decoded.Req))
}

func TestEncodeDecodeReturnOk(t *testing.T) {
	op := Operation{Kind: KindReturnOk, Resp: []byte("result")}
	decoded, err := Decode(Encode(op))
	require.NoError(t, err)
	require.Equal(t, KindReturnOk, decoded.Kind)
	require.Equal(t, "result", string(decoded.Resp))
}

func TestEncodeDecodeReturnErr(t *testing.T) {
	op := Operation{Kind: KindReturnErr, ErrMsg: "boom"}
	decoded, err := Decode(Encode(op))
	require.NoError(t, err)
	require.Equal(t, KindReturnErr, decoded.Kind)
	require.Equal(t, "boom", decoded.ErrMsg)
}
