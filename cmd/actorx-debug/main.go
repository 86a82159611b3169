// Command actorx-debug is a one-shot invocation CLI for local debugging: it
// registers a single actor (native, by name, or a signed WASM module) and
// issues one invocation against it, printing the response bytes base64-encoded. It is
// the Go analogue of the teacher's own debug-world CLI, narrowed from a
// full deploy/query/world-persistence surface down to a single invoke path.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/TwiN/go-color"
	"github.com/urfave/cli/v2"

	"github.com/tea-actorx/actorx-go/actors/kv"
	"github.com/tea-actorx/actorx-go/actors/timeactor"
	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/diagnostics"
	"github.com/tea-actorx/actorx-go/dispatcher"
	"github.com/tea-actorx/actorx-go/hostproc"
	"github.com/tea-actorx/actorx-go/registry"
)

var natives = map[string]func() actorx.Handler{
	"timeactor": func() actorx.Handler { return timeactor.New() },
	"kv":        func() actorx.Handler { return kv.New() },
}

func main() {
	app := &cli.App{
		Name:  "actorx-debug",
		Usage: "register one actor and issue one invocation against it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "actor id the invocation targets"},
			&cli.StringFlag{Name: "native", Usage: "name of a built-in native actor to register under --id"},
			&cli.StringFlag{Name: "module", Usage: "path to a signed WASM module to register under --id"},
			&cli.StringFlag{Name: "worker-binary", EnvVars: []string{"ACTORX_WORKER_BIN"}, Usage: "worker binary, required when --module is used"},
			&cli.StringFlag{Name: "caller", Usage: "actor id to invoke as (defaults to the host itself)"},
			&cli.StringFlag{Name: "req", Usage: "request payload, taken as a literal string"},
			&cli.StringFlag{Name: "req-base64", Usage: "request payload, base64-decoded"},
			&cli.BoolFlag{Name: "graph", Usage: "print the registered actor's capability graph as DOT instead of invoking it"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.Ize(color.Red, err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.String("id") == "" {
		return cli.Exit("--id is required", 1)
	}
	id := actorx.ActorId(c.String("id"))
	reg := registry.New()

	switch {
	case c.String("native") != "":
		factory, ok := natives[c.String("native")]
		if !ok {
			return fmt.Errorf("unknown native actor %q", c.String("native"))
		}
		if err := reg.RegisterNative(id, factory()); err != nil {
			return err
		}
	case c.String("module") != "":
		module, err := os.ReadFile(c.String("module"))
		if err != nil {
			return fmt.Errorf("read module: %w", err)
		}
		if err := reg.RegisterWasm(id, module); err != nil {
			return fmt.Errorf("register module: %w", err)
		}
	default:
		return cli.Exit("exactly one of --native or --module is required", 1)
	}

	if c.Bool("graph") {
		dot, err := diagnostics.CapabilityGraph(reg.Entries())
		if err != nil {
			return fmt.Errorf("render capability graph: %w", err)
		}
		fmt.Println(dot)
		return nil
	}

	var wasm dispatcher.WasmInvoker
	if binary := c.String("worker-binary"); binary != "" {
		invoker := hostproc.NewInvoker(binary)
		defer invoker.Close()
		wasm = invoker
	}
	disp := dispatcher.New(reg, wasm)

	req, err := requestBytes(c)
	if err != nil {
		return err
	}

	caller := actorx.ActorId(c.String("caller"))
	resp, err := disp.Invoke(context.Background(), caller, id, req)
	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	fmt.Println(color.Ize(color.Green, fmt.Sprintf("response (%d bytes): %s", len(resp), base64.StdEncoding.EncodeToString(resp))))
	return nil
}

func requestBytes(c *cli.Context) ([]byte, error) {
	if b64 := c.String("req-base64"); b64 != "" {
		return base64.StdEncoding.DecodeString(b64)
	}
	return []byte(c.String("req")), nil
}
