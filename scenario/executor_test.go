package scenario

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/actors/kv"
	"github.com/tea-actorx/actorx-go/codec"
	"github.com/tea-actorx/actorx-go/dispatcher"
	"github.com/tea-actorx/actorx-go/registry"
)

func encodeTyped(t *testing.T, v codec.Typed) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, v))
	return buf.String()
}

func TestHostExecutorRegistersAndDrivesNativeSteps(t *testing.T) {
	reg := registry.New()
	d := dispatcher.New(reg, nil)
	executor := NewHostExecutor(reg, d, map[string]NativeFactory{
		"kv": func() actorx.Handler { return kv.New() },
	})

	s := &Scenario{
		Name:     "kv-roundtrip",
		Register: []ActorSpec{{Id: "tea:kv", Kind: "native", Native: "kv"}},
		Steps: []Step{
			{Name: "put", Target: "tea:kv", Req: encodeTyped(t, &kv.Put{Key: "a", Value: []byte("1")})},
			{Name: "get", Target: "tea:kv", Req: encodeTyped(t, &kv.Get{Key: "a"})},
		},
	}

	require.NoError(t, executor.ExecuteTest(s))
}

func TestHostExecutorReportsUnknownNativeFactory(t *testing.T) {
	reg := registry.New()
	d := dispatcher.New(reg, nil)
	executor := NewHostExecutor(reg, d, map[string]NativeFactory{})

	s := &Scenario{
		Name:     "missing-factory",
		Register: []ActorSpec{{Id: "tea:kv", Kind: "native", Native: "kv"}},
	}

	err := executor.ExecuteTest(s)
	require.ErrorContains(t, err, `no native factory registered under name "kv"`)
}

func TestHostExecutorExpectErrorContainsPassesOnMatchingFailure(t *testing.T) {
	reg := registry.New()
	d := dispatcher.New(reg, nil)
	executor := NewHostExecutor(reg, d, nil)

	s := &Scenario{
		Steps: []Step{
			{Name: "missing-target", Target: "tea:nowhere", ExpectErrorContains: "does not exist"},
		},
	}
	require.NoError(t, executor.ExecuteTest(s))
}

func TestHostExecutorExpectErrorContainsFailsOnSuccess(t *testing.T) {
	reg := registry.New()
	d := dispatcher.New(reg, nil)
	executor := NewHostExecutor(reg, d, map[string]NativeFactory{
		"kv": func() actorx.Handler { return kv.New() },
	})

	s := &Scenario{
		Register: []ActorSpec{{Id: "tea:kv", Kind: "native", Native: "kv"}},
		Steps: []Step{
			{Name: "put", Target: "tea:kv", Req: encodeTyped(t, &kv.Put{Key: "a", Value: []byte("1")}), ExpectErrorContains: "boom"},
		},
	}
	err := executor.ExecuteTest(s)
	require.ErrorContains(t, err, `expected error containing "boom", got success`)
}
