// Package wasmval encodes and classifies the typed literal values that flow
// between a command list, the harness and an interpreter under test.
//
// A value travels as the string "type:value". Integers carry their decimal
// literal and floats carry the raw IEEE-754 bit pattern as an unsigned
// decimal, so NaN payloads survive the trip.
package wasmval

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type is the value type tag of a TypedValue.
type Type string

const (
	TypeI32       Type = "i32"
	TypeI64       Type = "i64"
	TypeF32       Type = "f32"
	TypeF64       Type = "f64"
	TypeV128      Type = "v128"
	TypeFuncref   Type = "funcref"
	TypeExternref Type = "externref"
)

// Void is the result encoding of a function that returns nothing.
const Void = "void"

// Separator splits the type tag from the value in an encoding.
const Separator = ":"

// ErrMalformedEncoding is returned when a string is not a valid "type:value" pair.
var ErrMalformedEncoding = errors.New("malformed value encoding")

var knownTypes = map[Type]struct{}{
	TypeI32:       {},
	TypeI64:       {},
	TypeF32:       {},
	TypeF64:       {},
	TypeV128:      {},
	TypeFuncref:   {},
	TypeExternref: {},
}

// Known reports whether t is a type the codec understands.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// IsFloat reports whether t is f32 or f64.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64
}

// TypedValue is a (type, value-encoding) pair as found in a command list.
type TypedValue struct {
	Type  Type
	Value string
}

// Encode renders v as "type:value".
func Encode(v TypedValue) string {
	return string(v.Type) + Separator + v.Value
}

// String implements fmt.Stringer.
func (v TypedValue) String() string {
	return Encode(v)
}

// Decode splits s on the first separator. The type tag must be known.
func Decode(s string) (TypedValue, error) {
	tag, value, ok := strings.Cut(s, Separator)
	if !ok {
		return TypedValue{}, fmt.Errorf("%w: %q has no %q separator", ErrMalformedEncoding, s, Separator)
	}
	t := Type(tag)
	if !t.Known() {
		return TypedValue{}, fmt.Errorf("%w: unknown type %q in %q", ErrMalformedEncoding, tag, s)
	}
	return TypedValue{Type: t, Value: value}, nil
}

// Bits parses the value of a scalar numeric TypedValue into its bit pattern.
// Negative integer literals are accepted and reinterpreted as two's complement.
// Float values must be unsigned bit patterns.
func Bits(v TypedValue) (uint64, error) {
	var size int
	switch v.Type {
	case TypeI32, TypeF32:
		size = 32
	case TypeI64, TypeF64:
		size = 64
	default:
		return 0, fmt.Errorf("%w: %s has no scalar bit pattern", ErrMalformedEncoding, v.Type)
	}
	if u, err := strconv.ParseUint(v.Value, 10, size); err == nil {
		return u, nil
	}
	if v.Type.IsFloat() {
		return 0, fmt.Errorf("%w: %q is not a %d-bit pattern", ErrMalformedEncoding, v.Value, size)
	}
	i, err := strconv.ParseInt(v.Value, 10, size)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a %d-bit literal", ErrMalformedEncoding, v.Value, size)
	}
	if size == 32 {
		return uint64(uint32(int32(i))), nil
	}
	return uint64(i), nil
}

// FromBits renders a scalar bit pattern in the codec's canonical form: the
// unsigned decimal of the pattern, truncated to the width of t.
func FromBits(t Type, bits uint64) TypedValue {
	if t == TypeI32 || t == TypeF32 {
		bits = uint64(uint32(bits))
	}
	return TypedValue{Type: t, Value: strconv.FormatUint(bits, 10)}
}

// jsonValue mirrors a value object of the command list. v128 values carry a
// lane type and one string per lane.
type jsonValue struct {
	Type     Type            `json:"type"`
	LaneType string          `json:"lane_type,omitempty"`
	Value    json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts {"type": ..., "value": "..."} and the v128 form
// {"type": "v128", "lane_type": "i32", "value": ["1", "2", "3", "4"]}. The
// latter is folded into "i32x4 1 2 3 4" so a TypedValue stays a plain pair.
func (v *TypedValue) UnmarshalJSON(b []byte) error {
	var raw jsonValue
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v.Type = raw.Type
	v.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	if raw.Value[0] != '[' {
		return json.Unmarshal(raw.Value, &v.Value)
	}
	var lanes []string
	if err := json.Unmarshal(raw.Value, &lanes); err != nil {
		return err
	}
	shape := raw.LaneType + "x" + strconv.Itoa(len(lanes))
	v.Value = strings.Join(append([]string{shape}, lanes...), " ")
	return nil
}

// MarshalJSON writes the scalar form. v128 values keep their folded string.
func (v TypedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Type   `json:"type"`
		Value string `json:"value"`
	}{v.Type, v.Value})
}
