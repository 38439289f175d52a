package vm

// Invokable is a method body the interpreter can activate: a compiled
// bytecode Method or a host Primitive. The interface is closed.
type Invokable interface {
	Value
	Signature() *Symbol
	Holder() *Class
	SetHolder(c *Class)
	IsPrimitive() bool

	// Invoke activates the body. The receiver and arguments are on top of
	// the frame's stack, last argument on top.
	Invoke(in *Interpreter, frame *Frame) error

	invokable()
}

// Method is a compiled bytecode method or block body.
type Method struct {
	signature *Symbol
	holder    *Class
	bytecodes []byte
	literals  []Value
	numLocals int
	maxStack  int
	cache     InlineCache
}

// NewMethod creates a method from generated code. maxStack is the peak
// operand stack depth computed by the code generator.
func NewMethod(signature *Symbol, bytecodes []byte, literals []Value, numLocals, maxStack int) *Method {
	return &Method{
		signature: signature,
		bytecodes: bytecodes,
		literals:  literals,
		numLocals: numLocals,
		maxStack:  maxStack,
		cache:     NewInlineCache(len(bytecodes)),
	}
}

func (m *Method) invokable() {}

// Signature returns the selector the method answers to.
func (m *Method) Signature() *Symbol { return m.signature }

// Holder returns the class the method is installed in.
func (m *Method) Holder() *Class { return m.holder }

// SetHolder sets the holder of m and of every block method in its literal
// pool, which share the holder for super sends.
func (m *Method) SetHolder(c *Class) {
	m.holder = c
	for _, lit := range m.literals {
		if block, ok := lit.(*Method); ok {
			block.SetHolder(c)
		}
	}
}

// IsPrimitive is false for compiled methods.
func (m *Method) IsPrimitive() bool { return false }

// NumArgs returns the argument count including the receiver.
func (m *Method) NumArgs() int { return m.signature.NumArgs() }

// NumLocals returns the number of declared locals.
func (m *Method) NumLocals() int { return m.numLocals }

// MaxStack returns the computed peak operand stack depth.
func (m *Method) MaxStack() int { return m.maxStack }

// Bytecodes returns the encoded instructions.
func (m *Method) Bytecodes() []byte { return m.bytecodes }

// Literals returns the literal pool.
func (m *Method) Literals() []Value { return m.literals }

// Literal returns the literal at index i.
func (m *Method) Literal(i int) Value { return m.literals[i] }

// Cache returns the send-site cache of m.
func (m *Method) Cache() *InlineCache { return &m.cache }

// Invoke pushes a new frame for m and moves the arguments into it.
func (m *Method) Invoke(in *Interpreter, frame *Frame) error {
	f := in.PushNewFrame(m, nil)
	f.CopyArgumentsFrom(frame)
	return nil
}
