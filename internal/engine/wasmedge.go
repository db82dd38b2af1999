//go:build integration
// +build integration

package engine

import (
	"fmt"

	"github.com/second-state/WasmEdge-go/wasmedge"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// WasmEdgeRuntime implements Runtime using the WasmEdge SDK.
type WasmEdgeRuntime struct{}

// NewWasmEdgeRuntime creates a new WasmEdge runtime instance.
func NewWasmEdgeRuntime() *WasmEdgeRuntime {
	wasmedge.SetLogErrorLevel()
	return &WasmEdgeRuntime{}
}

// LoadModule implements Runtime.LoadModule: load, validate, instantiate.
func (r *WasmEdgeRuntime) LoadModule(filePath string) (Module, error) {
	loader := wasmedge.NewLoader()
	defer loader.Release()

	ast, err := loader.LoadFile(filePath)
	if err != nil {
		return nil, &RuntimeError{Stage: StageLoad, Message: "load failed", Cause: err}
	}

	validator := wasmedge.NewValidator()
	defer validator.Release()

	if err := validator.Validate(ast); err != nil {
		ast.Release()
		return nil, &RuntimeError{Stage: StageValidate, Message: "validation failed", Cause: err}
	}

	store := wasmedge.NewStore()
	executor := wasmedge.NewExecutor()
	module, err := executor.Instantiate(store, ast)
	if err != nil {
		executor.Release()
		store.Release()
		ast.Release()
		return nil, &RuntimeError{Stage: StageInstantiate, Message: "instantiation failed", Cause: err}
	}

	return &WasmEdgeModule{ast: ast, store: store, executor: executor, module: module}, nil
}

// WasmEdgeModule wraps a WasmEdge module instance and the objects it depends on.
type WasmEdgeModule struct {
	ast      *wasmedge.AST
	store    *wasmedge.Store
	executor *wasmedge.Executor
	module   *wasmedge.Module
}

// Execute implements Module.Execute.
func (m *WasmEdgeModule) Execute(funcName string, args ...wasmval.TypedValue) ([]wasmval.TypedValue, error) {
	fn := m.module.FindFunction(funcName)
	if fn == nil {
		return nil, &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("function %q not found in module exports", funcName)}
	}

	params := make([]interface{}, len(args))
	for i, arg := range args {
		native, err := toNative(arg)
		if err != nil {
			return nil, &RuntimeError{Stage: StageArgs, Message: fmt.Sprintf("argument %d", i), Cause: err}
		}
		params[i] = native
	}

	returns, err := m.executor.Invoke(fn, params...)
	if err != nil {
		return nil, &RuntimeError{Stage: StageExecute, Message: "execution failed", Cause: err}
	}

	results := make([]wasmval.TypedValue, len(returns))
	for i, v := range returns {
		if results[i], err = fromNative(v); err != nil {
			return nil, &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("result %d", i), Cause: err}
		}
	}
	return results, nil
}

// Close implements Module.Close.
func (m *WasmEdgeModule) Close() {
	m.module.Release()
	m.executor.Release()
	m.store.Release()
	m.ast.Release()
}
