//go:build !integration
// +build !integration

package engine

// WasmEdgeRuntime is the placeholder used when WasmEdge is not linked in.
type WasmEdgeRuntime struct{}

// NewWasmEdgeRuntime creates the placeholder runtime.
func NewWasmEdgeRuntime() *WasmEdgeRuntime {
	return &WasmEdgeRuntime{}
}

// LoadModule implements Runtime.LoadModule.
func (r *WasmEdgeRuntime) LoadModule(filePath string) (Module, error) {
	return loadWasmEdgeModule(filePath)
}

// loadWasmEdgeModule is replaced in tests.
var loadWasmEdgeModule = func(filePath string) (Module, error) {
	return nil, &RuntimeError{Stage: StageLoad, Message: "built without WasmEdge support, rebuild with -tags=integration"}
}
