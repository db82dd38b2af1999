// Package engine adapts WebAssembly runtimes to the one-shot command-line
// protocol spoken by the conformance harness:
//
//	<binary> -p <module_path> -f <function_name> [-a <type:value>]*
//
// A reference runner loads the module, invokes the function once and prints
// either "void" or a single "type:value" result.
package engine

import (
	"fmt"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// Stage represents the stage at which a module or invocation failed.
type Stage string

const (
	StageNone        Stage = "none"
	StageArgs        Stage = "args"
	StageLoad        Stage = "load"
	StageValidate    Stage = "validate"
	StageInstantiate Stage = "instantiate"
	StageExecute     Stage = "execute"
)

// RuntimeError represents an error from a runtime, tagged with its stage.
type RuntimeError struct {
	Stage   Stage
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Runtime loads modules for execution.
type Runtime interface {
	// LoadModule loads, validates and instantiates the module at filePath.
	LoadModule(filePath string) (Module, error)
}

// Module is a loaded and instantiated module.
type Module interface {
	// Execute invokes the exported function with the given arguments.
	Execute(funcName string, args ...wasmval.TypedValue) ([]wasmval.TypedValue, error)
	// Close releases runtime resources.
	Close()
}
