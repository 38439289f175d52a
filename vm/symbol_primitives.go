package vm

// ---------------------------------------------------------------------------
// Symbol Primitives
// ---------------------------------------------------------------------------

func installSymbolPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("asString", unary(func(self Value) (Value, error) {
		s, err := symbolArg(self, "asString")
		if err != nil {
			return nil, err
		}
		return NewString(s.name), nil
	}))

	p.Instance("=", binary(func(self, arg Value) (Value, error) {
		return u.Boolean(self == arg), nil
	}))
}
