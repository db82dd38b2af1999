package engine

import (
	"fmt"
	"math"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// refNull is how command lists spell a null reference.
const refNull = "null"

// scalarBits returns the raw bits of a numeric or reference argument.
func scalarBits(v wasmval.TypedValue) (uint64, error) {
	if v.Type == wasmval.TypeExternref || v.Type == wasmval.TypeFuncref {
		if v.Value == refNull {
			return 0, nil
		}
		return wasmval.Bits(wasmval.TypedValue{Type: wasmval.TypeI64, Value: v.Value})
	}
	return wasmval.Bits(v)
}

// fromScalarBits is the inverse of scalarBits.
func fromScalarBits(t wasmval.Type, bits uint64) wasmval.TypedValue {
	if (t == wasmval.TypeExternref || t == wasmval.TypeFuncref) && bits == 0 {
		return wasmval.TypedValue{Type: t, Value: refNull}
	}
	return wasmval.FromBits(t, bits)
}

// toNative converts an argument to the Go value a cgo runtime expects.
// Floats are built from their bits so NaN payloads are preserved.
func toNative(v wasmval.TypedValue) (interface{}, error) {
	bits, err := wasmval.Bits(v)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case wasmval.TypeI32:
		return int32(uint32(bits)), nil
	case wasmval.TypeI64:
		return int64(bits), nil
	case wasmval.TypeF32:
		return math.Float32frombits(uint32(bits)), nil
	default:
		return math.Float64frombits(bits), nil
	}
}

// fromNative converts a Go value returned by a cgo runtime to a TypedValue.
func fromNative(v interface{}) (wasmval.TypedValue, error) {
	switch n := v.(type) {
	case int32:
		return wasmval.FromBits(wasmval.TypeI32, uint64(uint32(n))), nil
	case int64:
		return wasmval.FromBits(wasmval.TypeI64, uint64(n)), nil
	case float32:
		return wasmval.FromBits(wasmval.TypeF32, uint64(math.Float32bits(n))), nil
	case float64:
		return wasmval.FromBits(wasmval.TypeF64, math.Float64bits(n)), nil
	}
	return wasmval.TypedValue{}, fmt.Errorf("unsupported result value %T", v)
}
