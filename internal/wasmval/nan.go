package wasmval

import "fmt"

// IEEE-754 layout constants.
const (
	F32ExponentMask     = uint32(0x7f80_0000)
	F32MantissaMask     = uint32(0x007f_ffff)
	F32PayloadMSB       = uint32(0x0040_0000)
	F32CanonicalNaNBits = uint32(0x7fc0_0000)
	F32SignlessMask     = uint32(0x7fff_ffff)

	F64ExponentMask     = uint64(0x7ff0_0000_0000_0000)
	F64MantissaMask     = uint64(0x000f_ffff_ffff_ffff)
	F64PayloadMSB       = uint64(0x0008_0000_0000_0000)
	F64CanonicalNaNBits = uint64(0x7ff8_0000_0000_0000)
	F64SignlessMask     = uint64(0x7fff_ffff_ffff_ffff)
)

// NaNKind selects which NaN class an assertion accepts.
type NaNKind int

const (
	// NaNArithmetic accepts any NaN whose payload MSB is set.
	NaNArithmetic NaNKind = iota
	// NaNCanonical accepts only the payload with the MSB alone set.
	NaNCanonical
)

func (k NaNKind) String() string {
	switch k {
	case NaNCanonical:
		return "canonical_nan"
	case NaNArithmetic:
		return "arithmetic_nan"
	default:
		return fmt.Sprintf("NaNKind(%d)", int(k))
	}
}

// Inline NaN expectations used by newer command lists in assert_return.
const (
	NaNCanonicalLiteral  = "nan:canonical"
	NaNArithmeticLiteral = "nan:arithmetic"
)

// ParseNaNLiteral recognises "nan:canonical" and "nan:arithmetic".
func ParseNaNLiteral(s string) (NaNKind, bool) {
	switch s {
	case NaNCanonicalLiteral:
		return NaNCanonical, true
	case NaNArithmeticLiteral:
		return NaNArithmetic, true
	}
	return 0, false
}

// IsNaNBitPattern reports whether bits, read as an f32 or f64, is a NaN:
// exponent all ones and a nonzero mantissa. Any other type is an error.
func IsNaNBitPattern(t Type, bits uint64) (bool, error) {
	switch t {
	case TypeF32:
		b := uint32(bits)
		return b&F32ExponentMask == F32ExponentMask && b&F32MantissaMask != 0, nil
	case TypeF64:
		return bits&F64ExponentMask == F64ExponentMask && bits&F64MantissaMask != 0, nil
	}
	return false, fmt.Errorf("%w: %s is not a float type", ErrMalformedEncoding, t)
}

// MatchesNaN reports whether bits belongs to the NaN class kind. The sign
// bit is ignored. Arithmetic NaNs need the payload MSB set; the canonical NaN
// has exactly that bit and nothing else in its payload.
func MatchesNaN(t Type, bits uint64, kind NaNKind) (bool, error) {
	isNaN, err := IsNaNBitPattern(t, bits)
	if err != nil || !isNaN {
		return false, err
	}
	switch t {
	case TypeF32:
		b := uint32(bits)
		if kind == NaNCanonical {
			return b&F32SignlessMask == F32CanonicalNaNBits, nil
		}
		return b&F32PayloadMSB != 0, nil
	default:
		if kind == NaNCanonical {
			return bits&F64SignlessMask == F64CanonicalNaNBits, nil
		}
		return bits&F64PayloadMSB != 0, nil
	}
}
