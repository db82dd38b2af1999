package wasmval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNaNBitPattern(t *testing.T) {
	testCases := []struct {
		name  string
		typ   Type
		bits  uint64
		isNaN bool
	}{
		{name: "f32_canonical", typ: TypeF32, bits: 0x7fc0_0000, isNaN: true},
		{name: "f32_signalling", typ: TypeF32, bits: 0x7f80_0001, isNaN: true},
		{name: "f32_negative_nan", typ: TypeF32, bits: 0xffc0_0000, isNaN: true},
		{name: "f32_inf", typ: TypeF32, bits: 0x7f80_0000, isNaN: false},
		{name: "f32_one", typ: TypeF32, bits: 0x3f80_0000, isNaN: false},
		{name: "f32_ignores_high_word", typ: TypeF32, bits: 0xffff_ffff_3f80_0000, isNaN: false},
		{name: "f64_canonical", typ: TypeF64, bits: 0x7ff8_0000_0000_0000, isNaN: true},
		{name: "f64_signalling", typ: TypeF64, bits: 0x7ff0_0000_0000_0001, isNaN: true},
		{name: "f64_inf", typ: TypeF64, bits: 0x7ff0_0000_0000_0000, isNaN: false},
		{name: "f64_one", typ: TypeF64, bits: 0x3ff0_0000_0000_0000, isNaN: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsNaNBitPattern(tc.typ, tc.bits)
			require.NoError(t, err)
			assert.Equal(t, tc.isNaN, got)
		})
	}
}

func TestIsNaNBitPattern_NonFloat(t *testing.T) {
	for _, typ := range []Type{TypeI32, TypeI64, TypeV128} {
		t.Run(string(typ), func(t *testing.T) {
			got, err := IsNaNBitPattern(typ, 0x7fc0_0000)
			assert.ErrorIs(t, err, ErrMalformedEncoding, "non-float types must not classify")
			assert.False(t, got)
		})
	}
}

func TestMatchesNaN(t *testing.T) {
	testCases := []struct {
		name           string
		typ            Type
		bits           uint64
		wantCanonical  bool
		wantArithmetic bool
	}{
		{name: "f32_canonical", typ: TypeF32, bits: 0x7fc0_0000, wantCanonical: true, wantArithmetic: true},
		{name: "f32_negative_canonical", typ: TypeF32, bits: 0xffc0_0000, wantCanonical: true, wantArithmetic: true},
		{name: "f32_arithmetic_payload", typ: TypeF32, bits: 0x7fc0_0001, wantCanonical: false, wantArithmetic: true},
		{name: "f32_msb_unset", typ: TypeF32, bits: 0x7f80_0001, wantCanonical: false, wantArithmetic: false},
		{name: "f32_one", typ: TypeF32, bits: 0x3f80_0000, wantCanonical: false, wantArithmetic: false},
		{name: "f64_canonical", typ: TypeF64, bits: 0x7ff8_0000_0000_0000, wantCanonical: true, wantArithmetic: true},
		{name: "f64_arithmetic_payload", typ: TypeF64, bits: 0x7ff8_0000_0000_0004, wantCanonical: false, wantArithmetic: true},
		{name: "f64_msb_unset", typ: TypeF64, bits: 0x7ff0_0000_0000_0001, wantCanonical: false, wantArithmetic: false},
		{name: "f64_inf", typ: TypeF64, bits: 0xfff0_0000_0000_0000, wantCanonical: false, wantArithmetic: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			canonical, err := MatchesNaN(tc.typ, tc.bits, NaNCanonical)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCanonical, canonical, "canonical")

			arithmetic, err := MatchesNaN(tc.typ, tc.bits, NaNArithmetic)
			require.NoError(t, err)
			assert.Equal(t, tc.wantArithmetic, arithmetic, "arithmetic")
		})
	}
}

func TestParseNaNLiteral(t *testing.T) {
	kind, ok := ParseNaNLiteral("nan:canonical")
	assert.True(t, ok)
	assert.Equal(t, NaNCanonical, kind)

	kind, ok = ParseNaNLiteral("nan:arithmetic")
	assert.True(t, ok)
	assert.Equal(t, NaNArithmetic, kind)

	_, ok = ParseNaNLiteral("2143289344")
	assert.False(t, ok)
}
