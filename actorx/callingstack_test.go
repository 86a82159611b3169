package actorx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallingStackPushContainsTop(t *testing.T) {
	var stack CallingStack
	stack = stack.Push(ActorId("a"))
	stack = stack.Push(ActorId("b"))

	require.Equal(t, 2, stack.Len())
	top, ok := stack.Top()
	require.True(t, ok)
	require.True(t, top.Equal(ActorId("b")))
	require.True(t, stack.Contains(ActorId("a")))
	require.False(t, stack.Contains(ActorId("c")))
}

func TestCallingStackString(t *testing.T) {
	var stack CallingStack
	stack = stack.Push(ActorId("a"))
	stack = stack.Push(ActorId("b"))
	require.Equal(t, "b <- a", stack.String())
}
