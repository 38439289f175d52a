package vm

import "fmt"

// PrimitiveFunc is the host implementation of a primitive. It pops the
// receiver and arguments from frame and pushes exactly one result.
type PrimitiveFunc func(in *Interpreter, frame *Frame) error

// Primitive is a method implemented by the host.
type Primitive struct {
	signature *Symbol
	holder    *Class
	fn        PrimitiveFunc
}

// NewPrimitive creates a primitive for a selector.
func NewPrimitive(signature *Symbol, fn PrimitiveFunc) *Primitive {
	return &Primitive{signature: signature, fn: fn}
}

// NewEmptyPrimitive creates the placeholder installed for a method whose
// body is the keyword primitive, until a provider replaces it.
func NewEmptyPrimitive(signature *Symbol) *Primitive {
	return &Primitive{signature: signature}
}

func (p *Primitive) invokable() {}

// Signature returns the selector.
func (p *Primitive) Signature() *Symbol { return p.signature }

// Holder returns the class the primitive is installed in.
func (p *Primitive) Holder() *Class { return p.holder }

// SetHolder sets the holder.
func (p *Primitive) SetHolder(c *Class) { p.holder = c }

// IsPrimitive is true for primitives.
func (p *Primitive) IsPrimitive() bool { return true }

// IsEmpty reports whether no provider installed an implementation.
func (p *Primitive) IsEmpty() bool { return p.fn == nil }

// Invoke runs the host implementation. An empty primitive prints a warning
// and answers its receiver.
func (p *Primitive) Invoke(in *Interpreter, frame *Frame) error {
	if p.fn != nil {
		return p.fn(in, frame)
	}
	holder := "?"
	if p.holder != nil {
		holder = p.holder.Name().String()
	}
	fmt.Fprintf(in.u.Stderr, "Warning: undefined primitive %s>>#%s called\n", holder, p.signature)
	in.u.log.Warningf("undefined primitive %s>>#%s called", holder, p.signature)
	for i := 1; i < p.signature.NumArgs(); i++ {
		frame.Pop()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Providers
// ---------------------------------------------------------------------------

// PrimitiveProvider installs host implementations into a class and its
// metaclass when the class is loaded.
type PrimitiveProvider func(p *PrimitiveInstaller)

// PrimitiveInstaller is handed to providers.
type PrimitiveInstaller struct {
	u     *Universe
	class *Class
}

// Universe returns the universe the class is being loaded into.
func (p *PrimitiveInstaller) Universe() *Universe { return p.u }

// Class returns the class being loaded.
func (p *PrimitiveInstaller) Class() *Class { return p.class }

// Instance installs an instance-side primitive.
func (p *PrimitiveInstaller) Instance(signature string, fn PrimitiveFunc) {
	p.u.installPrimitive(p.class, signature, fn)
}

// ClassSide installs a class-side primitive.
func (p *PrimitiveInstaller) ClassSide(signature string, fn PrimitiveFunc) {
	p.u.installPrimitive(p.class.class, signature, fn)
}

// installPrimitive replaces a declared placeholder. A primitive the class
// source does not declare is still installed, with a warning.
func (u *Universe) installPrimitive(c *Class, signature string, fn PrimitiveFunc) {
	sig := u.SymbolFor(signature)
	prim := NewPrimitive(sig, fn)
	if !c.AddInstanceInvokable(prim) {
		u.log.Warningf("primitive %s is not in class definition for class %s", signature, c.Name())
	}
}

// defaultProviders maps class names to the providers bundled with the VM.
func defaultProviders() map[string]PrimitiveProvider {
	return map[string]PrimitiveProvider{
		"Object":    installObjectPrimitives,
		"Class":     installClassPrimitives,
		"Array":     installArrayPrimitives,
		"Integer":   installIntegerPrimitives,
		"Double":    installDoublePrimitives,
		"String":    installStringPrimitives,
		"Symbol":    installSymbolPrimitives,
		"Method":    installInvokablePrimitives,
		"Primitive": installInvokablePrimitives,
		"System":    installSystemPrimitives,
		"Block1":    installBlockPrimitives(1),
		"Block2":    installBlockPrimitives(2),
		"Block3":    installBlockPrimitives(3),
	}
}

// RegisterPrimitives installs a provider for a class name, replacing the
// bundled one. It must be called before the class is loaded.
func (u *Universe) RegisterPrimitives(className string, provider PrimitiveProvider) {
	u.providers[className] = provider
}

// loadPrimitives runs the provider for c. A missing provider is not fatal:
// the placeholders stay and warn when invoked.
func (u *Universe) loadPrimitives(c *Class) {
	provider, ok := u.providers[c.Name().String()]
	if !ok {
		u.log.Warningf("primitives for class %s not found", c.Name())
		return
	}
	provider(&PrimitiveInstaller{u: u, class: c})
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func integerArg(v Value, selector string) (int64, error) {
	i, ok := v.(Integer)
	if !ok {
		return 0, PrimitiveFailed.New("%s expects an integer, got %s", selector, describe(v)).
			WithProperty(PropertySelector, selector)
	}
	return int64(i), nil
}

func stringArg(v Value, selector string) (string, error) {
	switch s := v.(type) {
	case *String:
		return s.s, nil
	case *Symbol:
		return s.name, nil
	}
	return "", PrimitiveFailed.New("%s expects a string, got %s", selector, describe(v)).
		WithProperty(PropertySelector, selector)
}

func symbolArg(v Value, selector string) (*Symbol, error) {
	s, ok := v.(*Symbol)
	if !ok {
		return nil, PrimitiveFailed.New("%s expects a symbol, got %s", selector, describe(v)).
			WithProperty(PropertySelector, selector)
	}
	return s, nil
}

func classArg(v Value, selector string) (*Class, error) {
	c, ok := v.(*Class)
	if !ok {
		return nil, PrimitiveFailed.New("%s expects a class, got %s", selector, describe(v)).
			WithProperty(PropertySelector, selector)
	}
	return c, nil
}

func arrayArg(v Value, selector string) (*Array, error) {
	a, ok := v.(*Array)
	if !ok {
		return nil, PrimitiveFailed.New("%s expects an array, got %s", selector, describe(v)).
			WithProperty(PropertySelector, selector)
	}
	return a, nil
}

// unary adapts a function of the receiver into a primitive.
func unary(fn func(self Value) (Value, error)) PrimitiveFunc {
	return func(in *Interpreter, frame *Frame) error {
		result, err := fn(frame.Pop())
		if err != nil {
			return err
		}
		frame.Push(result)
		return nil
	}
}

// binary adapts a function of the receiver and one argument into a primitive.
func binary(fn func(self, arg Value) (Value, error)) PrimitiveFunc {
	return func(in *Interpreter, frame *Frame) error {
		arg := frame.Pop()
		self := frame.Pop()
		result, err := fn(self, arg)
		if err != nil {
			return err
		}
		frame.Push(result)
		return nil
	}
}
