// Package testcommon provides fluent, testify-based helpers for asserting
// on invocation results, following the teacher's own VMOutputVerifier
// pattern: a chainable wrapper around one call's outcome, narrowed from the
// teacher's VMOutput struct down to the (response, gas used, error) triple
// an invocation actually produces.
package testcommon

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// InvocationVerifier wraps one invocation's outcome for fluent assertions.
type InvocationVerifier struct {
	T       testing.TB
	Resp    []byte
	GasUsed uint64
	Err     error
}

// NewInvocationVerifier builds a verifier around one invocation's result.
func NewInvocationVerifier(t testing.TB, resp []byte, gasUsed uint64, err error) *InvocationVerifier {
	return &InvocationVerifier{T: t, Resp: resp, GasUsed: gasUsed, Err: err}
}

// Ok asserts the invocation succeeded.
func (v *InvocationVerifier) Ok() *InvocationVerifier {
	require.NoError(v.T, v.Err, "expected invocation to succeed")
	return v
}

// ErrorIs asserts the invocation failed with an error matching target.
func (v *InvocationVerifier) ErrorIs(target error) *InvocationVerifier {
	require.Error(v.T, v.Err, "expected invocation to fail")
	require.True(v.T, errors.Is(v.Err, target), "expected error %v, got %v", target, v.Err)
	return v
}

// ErrorContains asserts the invocation failed with an error message
// containing substr.
func (v *InvocationVerifier) ErrorContains(substr string) *InvocationVerifier {
	require.Error(v.T, v.Err, "expected invocation to fail")
	require.True(v.T, strings.Contains(v.Err.Error(), substr), "expected error containing %q, got %q", substr, v.Err.Error())
	return v
}

// Gas asserts the invocation consumed exactly expected gas.
func (v *InvocationVerifier) Gas(expected uint64) *InvocationVerifier {
	require.Equal(v.T, expected, v.GasUsed, "GasUsed")
	return v
}

// RespBytes asserts the response is byte-identical to expected.
func (v *InvocationVerifier) RespBytes(expected []byte) *InvocationVerifier {
	require.Equal(v.T, expected, v.Resp, "response bytes")
	return v
}

// Decode msgpack-decodes the response into out, failing the test on error.
func (v *InvocationVerifier) Decode(out any) *InvocationVerifier {
	require.NoError(v.T, msgpack.Unmarshal(v.Resp, out), "decode response")
	return v
}

// DecodeEquals decodes the response into a fresh value of expected's type
// and compares it against expected field by field, reporting any mismatch
// as a structured diff rather than testify's flat %+v dump — useful once
// decoded values grow past a couple of fields.
func (v *InvocationVerifier) DecodeEquals(expected any) *InvocationVerifier {
	out := reflect.New(reflect.TypeOf(expected)).Interface()
	require.NoError(v.T, msgpack.Unmarshal(v.Resp, out), "decode response")
	got := reflect.ValueOf(out).Elem().Interface()
	if diff := pretty.Diff(expected, got); len(diff) > 0 {
		v.T.Fatalf("decoded response mismatch:\n%s", strings.Join(diff, "\n"))
	}
	return v
}
