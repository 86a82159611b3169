// Package scenario runs declarative end-to-end invocation scenarios against
// a live host: register a handful of actors, issue a sequence of
// invocations, and check that each succeeds or fails with an expected error
// (responses are not compared). The Parser/Executor
// split mirrors the teacher's own mandos test runner, generalized from
// smart-contract call scenarios to actor invocations.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
)

// ActorSpec describes one actor a Scenario registers before its Steps run.
type ActorSpec struct {
	// Id is the actor identity, taken as UTF-8 bytes.
	Id string
	// Kind is either "native" or "wasm".
	Kind string
	// Native names a NativeFactory in HostExecutor.Natives (for Kind ==
	// "native"); Module is a path to a signed WASM file (for Kind == "wasm").
	Native string
	Module string
}

// Step is a single invocation to issue and check.
type Step struct {
	Name string
	// Caller and Target are actor ids, taken as UTF-8 bytes; an empty Caller
	// invokes as the host itself.
	Caller string
	Target string
	// Req is the raw request payload, already wire-encoded (base64 in the
	// JSON source is not required: Parser reads it as a JSON string and
	// passes its UTF-8 bytes through verbatim; the reference actors in this
	// repo decode requests as codec envelopes, so the string must hold one).
	Req string
	// ExpectErrorContains, if non-empty, asserts the invocation fails and its
	// error message contains this substring. Otherwise the invocation must
	// succeed.
	ExpectErrorContains string
}

// Scenario is one named sequence of actor registrations and steps.
type Scenario struct {
	Name      string
	Register  []ActorSpec
	Steps     []Step
}

// Parser loads Scenario values from JSON files on disk.
type Parser struct{}

// NewParser returns a ready-to-use Parser. JSON is used here rather than a
// bespoke format, unlike the teacher's own mandos JSON dialect with its
// custom value-expression grammar: no example repo in this pack supplies a
// richer scenario description format, and the standard library's
// encoding/json is the idiomatic choice for a flat, self-describing file
// format like this one.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and decodes one scenario file.
func (p *Parser) ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	return &s, nil
}

// TestExecutor runs one parsed Scenario against a live host, reporting
// failure by returning an error.
type TestExecutor interface {
	ExecuteTest(*Scenario) error
}

// TestRunner drives a sequence of scenario files through Executor, matching
// the teacher's own TestRunner{Executor, Parser} composition.
type TestRunner struct {
	Executor TestExecutor
	Parser   *Parser
}

// NewTestRunner returns a TestRunner backed by executor.
func NewTestRunner(executor TestExecutor) *TestRunner {
	return &TestRunner{Executor: executor, Parser: NewParser()}
}

// RunFile parses and executes a single scenario file.
func (r *TestRunner) RunFile(path string) error {
	s, err := r.Parser.ParseFile(path)
	if err != nil {
		return err
	}
	if err := r.Executor.ExecuteTest(s); err != nil {
		return fmt.Errorf("scenario %q (%s): %w", s.Name, path, err)
	}
	return nil
}

// RunFiles runs every file in paths in order, stopping at the first failure.
func (r *TestRunner) RunFiles(paths []string) error {
	for _, path := range paths {
		if err := r.RunFile(path); err != nil {
			return err
		}
	}
	return nil
}
