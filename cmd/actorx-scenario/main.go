// Command actorx-scenario runs one or more declarative end-to-end scenario
// files against a freshly built host, the Go analogue of the teacher's own
// mandos scenario test CLI.
package main

import (
	"fmt"
	"os"

	"github.com/TwiN/go-color"
	"github.com/urfave/cli/v2"

	"github.com/tea-actorx/actorx-go/actors/kv"
	"github.com/tea-actorx/actorx-go/actors/timeactor"
	"github.com/tea-actorx/actorx-go/actorx"
	"github.com/tea-actorx/actorx-go/dispatcher"
	"github.com/tea-actorx/actorx-go/hostproc"
	"github.com/tea-actorx/actorx-go/registry"
	"github.com/tea-actorx/actorx-go/scenario"
)

func main() {
	app := &cli.App{
		Name:      "actorx-scenario",
		Usage:     "run declarative end-to-end actor invocation scenarios",
		ArgsUsage: "<scenario-file>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "worker-binary", EnvVars: []string{"ACTORX_WORKER_BIN"}, Usage: "path to the actorx-worker binary, for wasm-backed actors"},
			&cli.BoolFlag{Name: "allow-self-recursion", Usage: "permit an actor to appear more than once on its own calling stack"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.Ize(color.Red, err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one <scenario-file> argument is required", 1)
	}

	reg := registry.New()

	var wasm dispatcher.WasmInvoker
	if binary := c.String("worker-binary"); binary != "" {
		invoker := hostproc.NewInvoker(binary)
		defer invoker.Close()
		wasm = invoker
	}

	disp := dispatcher.New(reg, wasm)
	disp.AllowSelfRecursion = c.Bool("allow-self-recursion")

	natives := map[string]scenario.NativeFactory{
		"timeactor": func() actorx.Handler { return timeactor.New() },
		"kv":        func() actorx.Handler { return kv.New() },
	}

	executor := scenario.NewHostExecutor(reg, disp, natives)
	runner := scenario.NewTestRunner(executor)

	if err := runner.RunFiles(paths); err != nil {
		return err
	}

	fmt.Println(color.Ize(color.Green, fmt.Sprintf("%d scenario(s) passed", len(paths))))
	return nil
}
