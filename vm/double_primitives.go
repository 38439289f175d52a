package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Double Primitives
// ---------------------------------------------------------------------------

func installDoublePrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("asString", unary(func(self Value) (Value, error) {
		if _, ok := self.(Double); !ok {
			return nil, notANumber(self)
		}
		return NewString(FormatNumber(self)), nil
	}))

	p.Instance("asInteger", unary(func(self Value) (Value, error) {
		f, err := doubleArg(self, "asInteger")
		if err != nil {
			return nil, err
		}
		return NormalizeFloat(math.Trunc(f)), nil
	}))

	p.Instance("round", unary(func(self Value) (Value, error) {
		f, err := doubleArg(self, "round")
		if err != nil {
			return nil, err
		}
		return NormalizeFloat(math.Round(f)), nil
	}))

	p.Instance("sin", unary(func(self Value) (Value, error) {
		f, err := doubleArg(self, "sin")
		if err != nil {
			return nil, err
		}
		return Double(math.Sin(f)), nil
	}))

	p.Instance("cos", unary(func(self Value) (Value, error) {
		f, err := doubleArg(self, "cos")
		if err != nil {
			return nil, err
		}
		return Double(math.Cos(f)), nil
	}))

	p.Instance("sqrt", unary(NumSqrt))
	p.Instance("+", binary(NumAdd))
	p.Instance("-", binary(NumSubtract))
	p.Instance("*", binary(NumMultiply))
	p.Instance("/", binary(NumIntegerDivide))
	p.Instance("//", binary(NumDoubleDivide))
	p.Instance("%", binary(NumModulo))

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

	p.ClassSide("PositiveInfinity", unary(func(Value) (Value, error) {
		return Double(math.Inf(1)), nil
	}))

	p.ClassSide("fromString:", binary(func(_, arg Value) (Value, error) {
		s, err := stringArg(arg, "fromString:")
		if err != nil {
			return nil, err
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return Double(math.NaN()), nil
		}
		return Double(f), nil
	}))
}

func doubleArg(v Value, selector string) (float64, error) {
	d, ok := v.(Double)
	if !ok {
		return 0, PrimitiveFailed.New("%s expects a double, got %s", selector, describe(v)).
			WithProperty(PropertySelector, selector)
	}
	return float64(d), nil
}
