package vm

// ---------------------------------------------------------------------------
// Array Primitives
// ---------------------------------------------------------------------------

func installArrayPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("at:", binary(func(self, arg Value) (Value, error) {
		a, idx, err := arrayIndex(self, arg, "at:")
		if err != nil {
			return nil, err
		}
		return a.At(idx), nil
	}))

	p.Instance("at:put:", func(in *Interpreter, frame *Frame) error {
		value := frame.Pop()
		index := frame.Pop()
		a, idx, err := arrayIndex(frame.Top(), index, "at:put:")
		if err != nil {
			return err
		}
		a.Put(idx, value)
		return nil
	})

	p.Instance("length", unary(func(self Value) (Value, error) {
		a, err := arrayArg(self, "length")
		if err != nil {
			return nil, err
		}
		return Integer(a.Len()), nil
	}))

	p.ClassSide("new:", binary(func(_, arg Value) (Value, error) {
		n, err := integerArg(arg, "new:")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, PrimitiveFailed.New("new: negative size %d", n).WithProperty(PropertySelector, "new:")
		}
		return u.NewArray(int(n)), nil
	}))
}

// arrayIndex converts a 1-based SOM index into a checked 0-based one.
func arrayIndex(self, arg Value, selector string) (*Array, int, error) {
	a, err := arrayArg(self, selector)
	if err != nil {
		return nil, 0, err
	}
	idx, err := integerArg(arg, selector)
	if err != nil {
		return nil, 0, err
	}
	if idx < 1 || idx > int64(a.Len()) {
		return nil, 0, PrimitiveFailed.New("%s: index %d out of bounds for array of length %d", selector, idx, a.Len()).
			WithProperty(PropertySelector, selector)
	}
	return a, int(idx - 1), nil
}
