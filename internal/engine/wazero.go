package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// readModuleFile reads a module binary from disk. Tests replace it.
var readModuleFile = os.ReadFile

// WazeroRuntime implements Runtime on top of wazero. Every loaded module gets
// its own wazero runtime with the spectest host functions registered.
type WazeroRuntime struct {
	ctx    context.Context
	config wazero.RuntimeConfig
}

// NewWazeroRuntime creates a runtime using the given wazero configuration.
// A nil config selects the interpreter engine.
func NewWazeroRuntime(ctx context.Context, config wazero.RuntimeConfig) *WazeroRuntime {
	if config == nil {
		config = wazero.NewRuntimeConfigInterpreter()
	}
	return &WazeroRuntime{ctx: ctx, config: config}
}

// LoadModule implements Runtime.LoadModule.
func (r *WazeroRuntime) LoadModule(filePath string) (Module, error) {
	bin, err := readModuleFile(filePath)
	if err != nil {
		return nil, &RuntimeError{Stage: StageLoad, Message: "read failed", Cause: err}
	}

	rt := wazero.NewRuntimeWithConfig(r.ctx, r.config)
	if err := instantiateSpectestHost(r.ctx, rt); err != nil {
		_ = rt.Close(r.ctx)
		return nil, &RuntimeError{Stage: StageInstantiate, Message: "spectest host module", Cause: err}
	}

	compiled, err := rt.CompileModule(r.ctx, bin)
	if err != nil {
		_ = rt.Close(r.ctx)
		return nil, &RuntimeError{Stage: StageValidate, Message: "compile failed", Cause: err}
	}

	mod, err := rt.InstantiateModule(r.ctx, compiled, wazero.NewModuleConfig().WithStartFunctions())
	if err != nil {
		_ = rt.Close(r.ctx)
		return nil, &RuntimeError{Stage: StageInstantiate, Message: "instantiation failed", Cause: err}
	}
	return &WazeroModule{ctx: r.ctx, rt: rt, mod: mod}, nil
}

// instantiateSpectestHost registers the print functions suite modules import
// from "spectest". Globals, tables and memories of that module are not provided.
func instantiateSpectestHost(ctx context.Context, rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder("spectest").
		NewFunctionBuilder().WithFunc(func(context.Context) {}).Export("print").
		NewFunctionBuilder().WithFunc(func(context.Context, uint32) {}).Export("print_i32").
		NewFunctionBuilder().WithFunc(func(context.Context, uint64) {}).Export("print_i64").
		NewFunctionBuilder().WithFunc(func(context.Context, float32) {}).Export("print_f32").
		NewFunctionBuilder().WithFunc(func(context.Context, float64) {}).Export("print_f64").
		NewFunctionBuilder().WithFunc(func(context.Context, uint32, float32) {}).Export("print_i32_f32").
		NewFunctionBuilder().WithFunc(func(context.Context, float64, float64) {}).Export("print_f64_f64").
		Instantiate(ctx)
	return err
}

// WazeroModule wraps an instantiated wazero module and the runtime owning it.
type WazeroModule struct {
	ctx context.Context
	rt  wazero.Runtime
	mod api.Module
}

// Execute implements Module.Execute.
func (m *WazeroModule) Execute(funcName string, args ...wasmval.TypedValue) ([]wasmval.TypedValue, error) {
	fn := m.mod.ExportedFunction(funcName)
	if fn == nil {
		return nil, &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("function %q not found in module exports", funcName)}
	}

	def := fn.Definition()
	paramTypes := def.ParamTypes()
	if len(paramTypes) != len(args) {
		return nil, &RuntimeError{Stage: StageArgs, Message: fmt.Sprintf("%s expects %d arguments, got %d", funcName, len(paramTypes), len(args))}
	}

	params := make([]uint64, len(args))
	for i, arg := range args {
		want, err := wazeroValueType(paramTypes[i])
		if err != nil {
			return nil, err
		}
		if arg.Type != want {
			return nil, &RuntimeError{Stage: StageArgs, Message: fmt.Sprintf("argument %d: expected %s, got %s", i, want, arg.Type)}
		}
		if params[i], err = scalarBits(arg); err != nil {
			return nil, &RuntimeError{Stage: StageArgs, Message: fmt.Sprintf("argument %d", i), Cause: err}
		}
	}

	out, err := fn.Call(m.ctx, params...)
	if err != nil {
		return nil, &RuntimeError{Stage: StageExecute, Message: "execution failed", Cause: err}
	}

	resultTypes := def.ResultTypes()
	results := make([]wasmval.TypedValue, len(out))
	for i, bits := range out {
		t, err := wazeroValueType(resultTypes[i])
		if err != nil {
			return nil, err
		}
		results[i] = fromScalarBits(t, bits)
	}
	return results, nil
}

// Close implements Module.Close.
func (m *WazeroModule) Close() {
	_ = m.rt.Close(m.ctx)
}

func wazeroValueType(t api.ValueType) (wasmval.Type, error) {
	switch t {
	case api.ValueTypeI32:
		return wasmval.TypeI32, nil
	case api.ValueTypeI64:
		return wasmval.TypeI64, nil
	case api.ValueTypeF32:
		return wasmval.TypeF32, nil
	case api.ValueTypeF64:
		return wasmval.TypeF64, nil
	case api.ValueTypeExternref:
		return wasmval.TypeExternref, nil
	}
	return "", &RuntimeError{Stage: StageExecute, Message: fmt.Sprintf("unsupported value type %s", api.ValueTypeName(t))}
}
