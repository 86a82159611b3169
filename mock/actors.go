package mock

import (
	"context"
	"fmt"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/callctx"
)

// ForwardingActor invokes Target through Dispatcher on every request and
// returns whatever Target returned, unmodified. Chaining several of these
// together (A forwards to B, B forwards to A) is how the invocation ring
// scenarios exercise Dispatcher.formsRing without needing a real WASM
// module, the same role the teacher's transferAndExecuteSC mock contract
// played for its own forwarded-call tests.
type ForwardingActor struct {
	Self       actorx.ActorId
	Target     actorx.ActorId
	Dispatcher actorx.Dispatcher
}

// Handle implements actorx.Handler.
func (a *ForwardingActor) Handle(ctx context.Context, req []byte) ([]byte, error) {
	if a.Dispatcher == nil {
		return nil, fmt.Errorf("mock: ForwardingActor has no Dispatcher configured")
	}
	return a.Dispatcher.Invoke(ctx, a.Self, a.Target, req)
}

var _ actorx.Handler = (*ForwardingActor)(nil)

// SelfCallingActor invokes its own Self id through Dispatcher, used by the
// AllowSelfRecursion exemption's tests. Requests are msgpack-free raw
// counters: the first byte is the number of recursive hops still to make.
type SelfCallingActor struct {
	Self       actorx.ActorId
	Dispatcher actorx.Dispatcher
}

// Handle implements actorx.Handler.
func (a *SelfCallingActor) Handle(ctx context.Context, req []byte) ([]byte, error) {
	if len(req) == 0 || req[0] == 0 {
		return []byte("base case"), nil
	}
	return a.Dispatcher.Invoke(ctx, a.Self, a.Self, []byte{req[0] - 1})
}

var _ actorx.Handler = (*SelfCallingActor)(nil)

// GasMismatchActor deliberately overwrites the invocation's gas cell to a
// value inconsistent with its own declared cost, reproducing the failure
// mode the strict gas-synchronization policy exists to catch: a worker
// reporting a terminal gas_remaining the host did not expect. The dispatcher
// only debits a native request's declared price, and this actor declares
// none, so it stands in for a misbehaving (or compromised) worker process
// for host-side tests.
type GasMismatchActor struct {
	ReportedRemaining uint64
}

// Handle implements actorx.Handler.
func (a *GasMismatchActor) Handle(ctx context.Context, _ []byte) ([]byte, error) {
	if err := callctx.SetGas(ctx, a.ReportedRemaining); err != nil {
		return nil, err
	}
	return []byte("ok"), nil
}

var _ actorx.Handler = (*GasMismatchActor)(nil)
