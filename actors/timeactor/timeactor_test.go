package timeactor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/codec"
)

func TestHandleReportsInjectedTime(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &Actor{Now: func() time.Time { return fixed }}

	var reqBuf bytes.Buffer
	require.NoError(t, codec.Encode(&reqBuf, &Request{}))

	respBytes, err := a.Handle(context.Background(), reqBuf.Bytes())
	require.NoError(t, err)

	typed, err := codec.Decode(bytes.NewReader(respBytes))
	require.NoError(t, err)
	resp, ok := typed.(*Response)
	require.True(t, ok, "response = %T, want *Response", typed)
	require.Equal(t, fixed.UnixNano(), resp.UnixNano)
}
