// Command wasmedge-runner is a reference interpreter for the conformance
// harness, backed by the WasmEdge SDK. Build with -tags=integration; without
// it every invocation fails at the load stage.
package main

import (
	"os"

	"github.com/mrhapile/wasm-spectest/internal/engine"
)

func main() {
	os.Exit(engine.Serve("wasmedge-runner", engine.NewWasmEdgeRuntime(), os.Args[1:], os.Stdout, os.Stderr))
}
