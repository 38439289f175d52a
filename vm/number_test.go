package vm

import (
	"math"
	"math/big"
	"testing"

	"github.com/joomcode/errorx"
)

func mustBig(t *testing.T, s string) Value {
	t.Helper()
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big integer %q", s)
	}
	return NormalizeInteger(b)
}

func TestNumberOverflowPromotes(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want string
	}{
		{"add", NumAdd, Integer(math.MaxInt64), Integer(1), "9223372036854775808"},
		{"subtract", NumSubtract, Integer(math.MinInt64), Integer(1), "-9223372036854775809"},
		{"multiply", NumMultiply, Integer(math.MaxInt64), Integer(2), "18446744073709551614"},
		{"negate min", NumMultiply, Integer(math.MinInt64), Integer(-1), "9223372036854775808"},
		{"shift", NumLeftShift, Integer(1), Integer(64), "18446744073709551616"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(tc.a, tc.b)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			b, ok := got.(*BigInteger)
			if !ok {
				t.Fatalf("result = %v (%T), want *BigInteger", got, got)
			}
			if b.String() != tc.want {
				t.Errorf("result = %s, want %s", b, tc.want)
			}
		})
	}
}

func TestNumberDemotes(t *testing.T) {
	huge := mustBig(t, "9223372036854775808")
	got, err := NumSubtract(huge, Integer(1))
	if err != nil {
		t.Fatal(err)
	}
	if got != Integer(math.MaxInt64) {
		t.Errorf("result = %v (%T), want Integer max", got, got)
	}
}

func TestNumberDivision(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"modulo positive", NumModulo, Integer(7), Integer(3), Integer(1)},
		{"modulo negative dividend", NumModulo, Integer(-7), Integer(2), Integer(1)},
		{"modulo negative divisor", NumModulo, Integer(7), Integer(-2), Integer(-1)},
		{"remainder", NumRemainder, Integer(-7), Integer(2), Integer(-1)},
		{"quotient truncates", NumIntegerDivide, Integer(-7), Integer(2), Integer(-3)},
		{"double divide", NumDoubleDivide, Integer(1), Integer(4), Double(0.25)},
		{"double modulo", NumModulo, Double(-7), Integer(2), Double(1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(tc.a, tc.b)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tc.want {
				t.Errorf("result = %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestNumberDivisionByZero(t *testing.T) {
	for _, op := range []func(a, b Value) (Value, error){NumIntegerDivide, NumModulo, NumRemainder} {
		if _, err := op(Integer(1), Integer(0)); !errorx.IsOfType(err, PrimitiveFailed) {
			t.Errorf("err = %v, want PrimitiveFailed", err)
		}
	}
}

func TestNumberMixedArithmetic(t *testing.T) {
	got, err := NumAdd(Integer(1), Double(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if got != Double(1.5) {
		t.Errorf("1 + 0.5 = %v, want 1.5", got)
	}
	if _, err := NumAdd(Integer(1), NewString("x")); !errorx.IsOfType(err, PrimitiveFailed) {
		t.Errorf("err = %v, want PrimitiveFailed", err)
	}
}

func TestNumberEquality(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Integer(3), Integer(3), true},
		{Integer(3), Double(3), true},
		{Double(3.5), Integer(3), false},
		{mustBig(t, "99999999999999999999"), mustBig(t, "99999999999999999999"), true},
		{Integer(3), NewString("3"), false},
	}
	for _, tc := range tests {
		if got := NumEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("NumEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNumberSqrt(t *testing.T) {
	if got, _ := NumSqrt(Integer(16)); got != Integer(4) {
		t.Errorf("sqrt 16 = %v, want Integer 4", got)
	}
	if got, _ := NumSqrt(Integer(2)); got != Double(math.Sqrt2) {
		t.Errorf("sqrt 2 = %v, want %v", got, math.Sqrt2)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Integer(-42), "-42"},
		{Double(3), "3.0"},
		{Double(0.1), "0.1"},
		{Double(1e100), "1e+100"},
		{Double(math.Inf(1)), "Infinity"},
		{mustBig(t, "123456789012345678901234567890"), "123456789012345678901234567890"},
	}
	for _, tc := range tests {
		if got := FormatNumber(tc.v); got != tc.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestParseInteger(t *testing.T) {
	if v, ok := ParseInteger("42"); !ok || v != Integer(42) {
		t.Errorf("ParseInteger(42) = %v, %v", v, ok)
	}
	v, ok := ParseInteger("123456789012345678901234567890")
	if _, isBig := v.(*BigInteger); !ok || !isBig {
		t.Errorf("ParseInteger(big) = %v (%T), want *BigInteger", v, v)
	}
	if _, ok := ParseInteger("12a"); ok {
		t.Error("ParseInteger(12a) succeeded")
	}
}
