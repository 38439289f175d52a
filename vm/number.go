package vm

import (
	"math"
	"math/big"
	"strconv"
)

// Integer is a native 64-bit integer. Arithmetic that overflows promotes
// to BigInteger.
type Integer int64

// BigInteger is an arbitrary-precision integer. Results that fit in 64
// bits are demoted back to Integer.
type BigInteger struct {
	v *big.Int
}

// Double is a 64-bit float.
type Double float64

// NewBigInteger wraps v. The caller must not mutate v afterwards.
func NewBigInteger(v *big.Int) *BigInteger { return &BigInteger{v: v} }

// Big returns the underlying value.
func (b *BigInteger) Big() *big.Int { return b.v }

func (b *BigInteger) String() string { return b.v.String() }

// NormalizeInteger returns an Integer when v fits in 64 bits and a
// BigInteger otherwise.
func NormalizeInteger(v *big.Int) Value {
	if v.IsInt64() {
		return Integer(v.Int64())
	}
	return &BigInteger{v: v}
}

// IsNumber reports whether v belongs to the numeric tower.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Integer, *BigInteger, Double:
		return true
	}
	return false
}

func toBig(v Value) (*big.Int, bool) {
	switch x := v.(type) {
	case Integer:
		return big.NewInt(int64(x)), true
	case *BigInteger:
		return x.v, true
	}
	return nil, false
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Integer:
		return float64(x), true
	case *BigInteger:
		f, _ := new(big.Float).SetInt(x.v).Float64()
		return f, true
	case Double:
		return float64(x), true
	}
	return 0, false
}

// numericKind orders the tower: the result of a binary operation takes the
// larger kind of its operands.
type numericKind int

const (
	kindInteger numericKind = iota
	kindBig
	kindDouble
)

func kindOf(v Value) (numericKind, bool) {
	switch v.(type) {
	case Integer:
		return kindInteger, true
	case *BigInteger:
		return kindBig, true
	case Double:
		return kindDouble, true
	}
	return 0, false
}

func operandKind(left, right Value) (numericKind, error) {
	lk, ok := kindOf(left)
	if !ok {
		return 0, notANumber(left)
	}
	rk, ok := kindOf(right)
	if !ok {
		return 0, notANumber(right)
	}
	if rk > lk {
		return rk, nil
	}
	return lk, nil
}

// NumAdd implements + across the tower.
func NumAdd(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	switch k {
	case kindInteger:
		x, y := int64(left.(Integer)), int64(right.(Integer))
		r := x + y
		if (x^r)&(y^r) >= 0 {
			return Integer(r), nil
		}
	case kindDouble:
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return Double(x + y), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	return NormalizeInteger(new(big.Int).Add(x, y)), nil
}

// NumSubtract implements - across the tower.
func NumSubtract(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	switch k {
	case kindInteger:
		x, y := int64(left.(Integer)), int64(right.(Integer))
		r := x - y
		if (x^y)&(x^r) >= 0 {
			return Integer(r), nil
		}
	case kindDouble:
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return Double(x - y), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	return NormalizeInteger(new(big.Int).Sub(x, y)), nil
}

// NumMultiply implements * across the tower.
func NumMultiply(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	switch k {
	case kindInteger:
		x, y := int64(left.(Integer)), int64(right.(Integer))
		if x == 0 || y == 0 {
			return Integer(0), nil
		}
		r := x * y
		if r/y == x && !(x == -1 && y == math.MinInt64) && !(y == -1 && x == math.MinInt64) {
			return Integer(r), nil
		}
	case kindDouble:
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return Double(x * y), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	return NormalizeInteger(new(big.Int).Mul(x, y)), nil
}

// NumDoubleDivide implements //, always producing a Double.
func NumDoubleDivide(left, right Value) (Value, error) {
	if _, err := operandKind(left, right); err != nil {
		return nil, err
	}
	x, _ := toFloat(left)
	y, _ := toFloat(right)
	return Double(x / y), nil
}

// NumIntegerDivide implements / with the quotient truncated toward zero.
func NumIntegerDivide(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	if k == kindDouble {
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return NormalizeFloat(math.Trunc(x / y)), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	if y.Sign() == 0 {
		return nil, errDivisionByZero()
	}
	return NormalizeInteger(new(big.Int).Quo(x, y)), nil
}

// NumModulo implements %: the result takes the sign of the divisor.
func NumModulo(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	if k == kindDouble {
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return Double(r), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	if y.Sign() == 0 {
		return nil, errDivisionByZero()
	}
	r := new(big.Int).Rem(x, y)
	if r.Sign() != 0 && r.Sign() != y.Sign() {
		r.Add(r, y)
	}
	return NormalizeInteger(r), nil
}

// NumRemainder implements rem:, truncated remainder with the sign of the
// dividend.
func NumRemainder(left, right Value) (Value, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return nil, err
	}
	if k == kindDouble {
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return Double(math.Mod(x, y)), nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	if y.Sign() == 0 {
		return nil, errDivisionByZero()
	}
	return NormalizeInteger(new(big.Int).Rem(x, y)), nil
}

// NumBitAnd implements & on integers.
func NumBitAnd(left, right Value) (Value, error) {
	x, ok := toBig(left)
	if !ok {
		return nil, notAnInteger(left)
	}
	y, ok := toBig(right)
	if !ok {
		return nil, notAnInteger(right)
	}
	return NormalizeInteger(new(big.Int).And(x, y)), nil
}

// NumBitXor implements bitXor: on integers.
func NumBitXor(left, right Value) (Value, error) {
	x, ok := toBig(left)
	if !ok {
		return nil, notAnInteger(left)
	}
	y, ok := toBig(right)
	if !ok {
		return nil, notAnInteger(right)
	}
	return NormalizeInteger(new(big.Int).Xor(x, y)), nil
}

// NumLeftShift implements <<, promoting when bits would be lost.
func NumLeftShift(left, right Value) (Value, error) {
	n, ok := right.(Integer)
	if !ok || n < 0 {
		return nil, notAnInteger(right)
	}
	x, ok := toBig(left)
	if !ok {
		return nil, notAnInteger(left)
	}
	return NormalizeInteger(new(big.Int).Lsh(x, uint(n))), nil
}

// NumRightShift implements >>>, a logical shift on the 64-bit pattern.
func NumRightShift(left, right Value) (Value, error) {
	x, ok := left.(Integer)
	if !ok {
		return nil, notAnInteger(left)
	}
	n, ok := right.(Integer)
	if !ok || n < 0 {
		return nil, notAnInteger(right)
	}
	if n >= 64 {
		return Integer(0), nil
	}
	return Integer(int64(uint64(x) >> uint(n))), nil
}

// NumEqual compares two values numerically. Non-numbers are never equal to
// numbers; an Integer equals a Double holding the same value.
func NumEqual(left, right Value) bool {
	k, err := operandKind(left, right)
	if err != nil {
		return false
	}
	switch k {
	case kindInteger:
		return left.(Integer) == right.(Integer)
	case kindDouble:
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return x == y
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	return x.Cmp(y) == 0
}

// NumLessThan implements <.
func NumLessThan(left, right Value) (bool, error) {
	k, err := operandKind(left, right)
	if err != nil {
		return false, err
	}
	switch k {
	case kindInteger:
		return left.(Integer) < right.(Integer), nil
	case kindDouble:
		x, _ := toFloat(left)
		y, _ := toFloat(right)
		return x < y, nil
	}
	x, _ := toBig(left)
	y, _ := toBig(right)
	return x.Cmp(y) < 0, nil
}

// NumSqrt returns an integer when the root is exact and a Double otherwise.
func NumSqrt(v Value) (Value, error) {
	switch x := v.(type) {
	case Double:
		return Double(math.Sqrt(float64(x))), nil
	case *BigInteger:
		if x.v.Sign() >= 0 {
			r := new(big.Int).Sqrt(x.v)
			if new(big.Int).Mul(r, r).Cmp(x.v) == 0 {
				return NormalizeInteger(r), nil
			}
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, notANumber(v)
	}
	r := math.Sqrt(f)
	if _, isInt := v.(Integer); isInt && r == math.Round(r) {
		return NormalizeFloat(r), nil
	}
	return Double(r), nil
}

// NormalizeFloat converts an integral float to the integer tier.
func NormalizeFloat(f float64) Value {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Double(f)
	}
	if f >= math.MinInt64 && f < math.MaxInt64 {
		return Integer(int64(f))
	}
	b, _ := big.NewFloat(f).Int(nil)
	return NormalizeInteger(b)
}

// FormatNumber renders a number the way asString does.
func FormatNumber(v Value) string {
	switch x := v.(type) {
	case Integer:
		return strconv.FormatInt(int64(x), 10)
	case *BigInteger:
		return x.v.String()
	case Double:
		return FormatDouble(float64(x))
	}
	return ""
}

// FormatDouble renders f with the shortest representation that round-trips,
// keeping a decimal point so it reads back as a Double.
func FormatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' {
			return s
		}
	}
	return s + ".0"
}

// ParseInteger parses decimal text into the integer tier.
func ParseInteger(s string) (Value, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Integer(n), true
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return NormalizeInteger(b), true
}
