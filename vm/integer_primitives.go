package vm

import (
	"math/big"
	"math/rand"
)

// ---------------------------------------------------------------------------
// Integer Primitives
// ---------------------------------------------------------------------------

// Integer and BigInteger share the Integer class, so every primitive here
// accepts both representations as receiver.
func installIntegerPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("asString", unary(func(self Value) (Value, error) {
		if !IsNumber(self) {
			return nil, notANumber(self)
		}
		return NewString(FormatNumber(self)), nil
	}))

	p.Instance("asDouble", unary(func(self Value) (Value, error) {
		f, ok := toFloat(self)
		if !ok {
			return nil, notANumber(self)
		}
		return Double(f), nil
	}))

	p.Instance("atRandom", unary(func(self Value) (Value, error) {
		n, err := integerArg(self, "atRandom")
		if err != nil {
			return nil, err
		}
		return Integer(int64(float64(n) * rand.Float64())), nil
	}))

	p.Instance("sqrt", unary(NumSqrt))
	p.Instance("+", binary(NumAdd))
	p.Instance("-", binary(NumSubtract))
	p.Instance("*", binary(NumMultiply))
	p.Instance("//", binary(NumDoubleDivide))
	p.Instance("/", binary(NumIntegerDivide))
	p.Instance("%", binary(NumModulo))
	p.Instance("rem:", binary(NumRemainder))
	p.Instance("&", binary(NumBitAnd))
	p.Instance("bitXor:", binary(NumBitXor))
	p.Instance("<<", binary(NumLeftShift))
	p.Instance(">>>", binary(NumRightShift))

	p.Instance("=", binary(func(self, arg Value) (Value, error) {
		return u.Boolean(NumEqual(self, arg)), nil
	}))

	p.Instance("<", binary(func(self, arg Value) (Value, error) {
		less, err := NumLessThan(self, arg)
		if err != nil {
			return nil, err
		}
		return u.Boolean(less), nil
	}))

	p.Instance("as32BitSignedValue", unary(func(self Value) (Value, error) {
		x, ok := toBig(self)
		if !ok {
			return nil, notAnInteger(self)
		}
		return Integer(int32(truncate64(x))), nil
	}))

	p.Instance("as32BitUnsignedValue", unary(func(self Value) (Value, error) {
		x, ok := toBig(self)
		if !ok {
			return nil, notAnInteger(self)
		}
		return Integer(uint32(truncate64(x))), nil
	}))

	p.ClassSide("fromString:", binary(func(_, arg Value) (Value, error) {
		s, err := stringArg(arg, "fromString:")
		if err != nil {
			return nil, err
		}
		v, ok := ParseInteger(s)
		if !ok {
			return u.Nil, nil
		}
		return v, nil
	}))
}

// truncate64 keeps the low 64 bits of x in two's complement.
func truncate64(x *big.Int) uint64 {
	if x.IsInt64() {
		return uint64(x.Int64())
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	return new(big.Int).And(x, mask).Uint64()
}
