// Command wazero-runner is a reference interpreter for the conformance
// harness, backed by wazero:
//
//	wazero-runner -p <module_path> -f <function_name> [-a <type:value>]*
//
// Set WAZERO_RUNNER_ENGINE=compiler to use the optimizing compiler.
package main

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero"

	"github.com/mrhapile/wasm-spectest/internal/engine"
)

func main() {
	config := wazero.NewRuntimeConfigInterpreter()
	if os.Getenv("WAZERO_RUNNER_ENGINE") == "compiler" {
		config = wazero.NewRuntimeConfigCompiler()
	}
	runtime := engine.NewWazeroRuntime(context.Background(), config)
	os.Exit(engine.Serve("wazero-runner", runtime, os.Args[1:], os.Stdout, os.Stderr))
}
