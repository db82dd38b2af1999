package main

import (
	"fmt"

	"github.com/mrhapile/wasm-spectest/internal/wasmval"
)

// NaNMode selects how NaN assertions are judged.
type NaNMode string

const (
	// NaNModeStrict distinguishes canonical from arithmetic NaNs.
	NaNModeStrict NaNMode = "strict"
	// NaNModeLoose accepts any NaN for both assertion kinds.
	NaNModeLoose NaNMode = "loose"
)

// Verdict is the adjudication of one assertion.
type Verdict struct {
	Passed   bool
	Expected string
	Actual   string
	Kind     ErrorKind
}

// Adjudicator decides pass or fail for assertions given an Outcome.
type Adjudicator struct {
	NaNMode NaNMode
}

// AssertReturn passes iff the invocation succeeded and printed exactly the
// expected encoding, "void" when nothing is expected. An expected float of
// "nan:canonical" or "nan:arithmetic" is judged with the NaN rule instead.
func (a Adjudicator) AssertReturn(expected []wasmval.TypedValue, out Outcome) Verdict {
	want := wasmval.Void
	if len(expected) > 0 {
		want = wasmval.Encode(expected[0])
	}

	if v, ok := a.outcomeFailed(want, out); ok {
		return v
	}

	if len(expected) > 0 && expected[0].Type.IsFloat() {
		if kind, isNaN := wasmval.ParseNaNLiteral(expected[0].Value); isNaN {
			if actual, err := wasmval.Decode(out.Result); err == nil && actual.Type != expected[0].Type {
				return Verdict{Expected: want, Actual: out.Result}
			}
			v := a.AssertNaN(kind, out)
			v.Expected = want
			return v
		}
	}

	return Verdict{Passed: out.Result == want, Expected: want, Actual: out.Result}
}

// AssertNaN passes iff the invocation succeeded with a float result in the
// NaN class kind.
func (a Adjudicator) AssertNaN(kind wasmval.NaNKind, out Outcome) Verdict {
	want := kind.String()
	if v, ok := a.outcomeFailed(want, out); ok {
		return v
	}

	v := Verdict{Expected: want, Actual: out.Result}
	actual, err := wasmval.Decode(out.Result)
	if err != nil {
		v.Kind = KindMalformedEncoding
		return v
	}
	if !actual.Type.IsFloat() {
		return v
	}
	bits, err := wasmval.Bits(actual)
	if err != nil {
		v.Kind = KindMalformedEncoding
		return v
	}

	if a.NaNMode == NaNModeLoose {
		v.Passed, _ = wasmval.IsNaNBitPattern(actual.Type, bits)
	} else {
		v.Passed, _ = wasmval.MatchesNaN(actual.Type, bits, kind)
	}
	return v
}

func (a Adjudicator) outcomeFailed(want string, out Outcome) (Verdict, bool) {
	switch out.Kind {
	case OutcomeSuccess:
		return Verdict{}, false
	case OutcomeTimeout:
		return Verdict{Expected: want, Actual: out.Message, Kind: KindTimeout}, true
	case OutcomeFailure:
		return Verdict{Expected: want, Actual: out.Message, Kind: KindProcessFailure}, true
	}
	return Verdict{Expected: want, Actual: fmt.Sprintf("unknown outcome %v", out.Kind)}, true
}
