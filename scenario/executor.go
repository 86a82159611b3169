package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/registry"
)

// NativeFactory constructs a fresh native Handler instance, looked up by the
// name an ActorSpec's Native field carries.
type NativeFactory func() actorx.Handler

// HostExecutor is a TestExecutor that registers each Scenario's actors into
// a live Registry and drives its Steps through a Dispatcher, the generalized
// Go equivalent of the teacher's own contract-deploy-then-call test
// executors.
type HostExecutor struct {
	Registry   *registry.Registry
	Dispatcher actorx.Dispatcher
	Natives    map[string]NativeFactory
}

// NewHostExecutor returns a HostExecutor wired to reg and dispatcher, with
// natives as the set of named native actor constructors scenario files may
// reference.
func NewHostExecutor(reg *registry.Registry, dispatcher actorx.Dispatcher, natives map[string]NativeFactory) *HostExecutor {
	return &HostExecutor{Registry: reg, Dispatcher: dispatcher, Natives: natives}
}

// ExecuteTest implements TestExecutor.
func (e *HostExecutor) ExecuteTest(s *Scenario) error {
	for _, spec := range s.Register {
		if err := e.register(spec); err != nil {
			return fmt.Errorf("register %s: %w", spec.Id, err)
		}
	}

	for _, step := range s.Steps {
		if err := e.runStep(step); err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}
	return nil
}

func (e *HostExecutor) register(spec ActorSpec) error {
	id := actorx.ActorId(spec.Id)
	switch spec.Kind {
	case "native":
		factory, ok := e.Natives[spec.Native]
		if !ok {
			return fmt.Errorf("no native factory registered under name %q", spec.Native)
		}
		return e.Registry.RegisterNative(id, factory())
	case "wasm":
		module, err := os.ReadFile(spec.Module)
		if err != nil {
			return fmt.Errorf("read module %s: %w", spec.Module, err)
		}
		return e.Registry.RegisterWasm(id, module)
	default:
		return fmt.Errorf("unknown actor kind %q", spec.Kind)
	}
}

func (e *HostExecutor) runStep(step Step) error {
	ctx := context.Background()
	caller := actorx.ActorId(step.Caller)
	target := actorx.ActorId(step.Target)

	_, err := e.Dispatcher.Invoke(ctx, caller, target, []byte(step.Req))

	if step.ExpectErrorContains != "" {
		if err == nil {
			return fmt.Errorf("expected error containing %q, got success", step.ExpectErrorContains)
		}
		if !strings.Contains(err.Error(), step.ExpectErrorContains) {
			return fmt.Errorf("expected error containing %q, got %q", step.ExpectErrorContains, err.Error())
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}
	return nil
}
