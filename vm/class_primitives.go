package vm

// ---------------------------------------------------------------------------
// Class Primitives
// ---------------------------------------------------------------------------

func installClassPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("new", unary(func(self Value) (Value, error) {
		c, err := classArg(self, "new")
		if err != nil {
			return nil, err
		}
		return u.NewInstance(c), nil
	}))

	p.Instance("name", unary(func(self Value) (Value, error) {
		c, err := classArg(self, "name")
		if err != nil {
			return nil, err
		}
		return c.Name(), nil
	}))

	p.Instance("superclass", unary(func(self Value) (Value, error) {
		c, err := classArg(self, "superclass")
		if err != nil {
			return nil, err
		}
		if c.Superclass() == nil {
			return u.Nil, nil
		}
		return c.Superclass(), nil
	}))

	p.Instance("fields", unary(func(self Value) (Value, error) {
		c, err := classArg(self, "fields")
		if err != nil {
			return nil, err
		}
		fields := c.AllInstanceFields()
		values := make([]Value, len(fields))
		for i, f := range fields {
			values[i] = f
		}
		return NewArrayFrom(values), nil
	}))

	p.Instance("methods", unary(func(self Value) (Value, error) {
		c, err := classArg(self, "methods")
		if err != nil {
			return nil, err
		}
		values := make([]Value, 0, c.NumberOfInstanceInvokables())
		for _, inv := range c.InstanceInvokables() {
			values = append(values, inv)
		}
		return NewArrayFrom(values), nil
	}))
}
