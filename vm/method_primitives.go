package vm

// ---------------------------------------------------------------------------
// Method and Primitive Primitives
// ---------------------------------------------------------------------------

// installInvokablePrimitives serves both Method and Primitive.
func installInvokablePrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("holder", unary(func(self Value) (Value, error) {
		inv, ok := self.(Invokable)
		if !ok {
			return nil, PrimitiveFailed.New("holder sent to %s", describe(self))
		}
		if inv.Holder() == nil {
			return u.Nil, nil
		}
		return inv.Holder(), nil
	}))

	p.Instance("signature", unary(func(self Value) (Value, error) {
		inv, ok := self.(Invokable)
		if !ok {
			return nil, PrimitiveFailed.New("signature sent to %s", describe(self))
		}
		return inv.Signature(), nil
	}))
}
