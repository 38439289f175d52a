package compiler

import (
	"github.com/chazu/som/vm"
)

// maxLiterals is the capacity of a method's literal pool; literal operands
// are a single byte.
const maxLiterals = 255

// ---------------------------------------------------------------------------
// MethodGen: per-method generation context
// ---------------------------------------------------------------------------

// MethodGen accumulates the code of one method or block while it is being
// parsed. Blocks link to the context they are nested in through outer.
type MethodGen struct {
	holder *ClassGen
	outer  *MethodGen

	signature *vm.Symbol
	arguments []string
	locals    []string
	literals  []vm.Value
	code      *vm.BytecodeBuilder

	finished  bool
	primitive bool
}

// NewMethodGen creates a context for a method of holder.
func NewMethodGen(holder *ClassGen) *MethodGen {
	return newMethodGen(holder, nil)
}

// NewBlockGen creates a context for a block nested in outer.
func NewBlockGen(outer *MethodGen) *MethodGen {
	return newMethodGen(outer.holder, outer)
}

func newMethodGen(holder *ClassGen, outer *MethodGen) *MethodGen {
	return &MethodGen{
		holder: holder,
		outer:  outer,
		code:   vm.NewBytecodeBuilder(),
	}
}

// Holder returns the class context the method belongs to.
func (m *MethodGen) Holder() *ClassGen { return m.holder }

// Outer returns the enclosing context of a block, or nil.
func (m *MethodGen) Outer() *MethodGen { return m.outer }

// IsBlock reports whether the context generates a block body.
func (m *MethodGen) IsBlock() bool { return m.outer != nil }

// Signature returns the selector set so far.
func (m *MethodGen) Signature() *vm.Symbol { return m.signature }

// SetSignature sets the selector.
func (m *MethodGen) SetSignature(sig *vm.Symbol) { m.signature = sig }

// MarkPrimitive records that the body is bound to a host primitive.
func (m *MethodGen) MarkPrimitive() { m.primitive = true }

// IsPrimitive reports whether the body is a primitive placeholder.
func (m *MethodGen) IsPrimitive() bool { return m.primitive }

// IsFinished reports whether a return ends the body.
func (m *MethodGen) IsFinished() bool { return m.finished }

// MarkFinished records that the body ends in a return.
func (m *MethodGen) MarkFinished() { m.finished = true }

// Arguments returns the argument names, self first.
func (m *MethodGen) Arguments() []string { return m.arguments }

// Locals returns the local variable names.
func (m *MethodGen) Locals() []string { return m.locals }

// AddArgument appends an argument name unless it is already declared.
func (m *MethodGen) AddArgument(name string) bool {
	if indexOf(m.arguments, name) >= 0 {
		return false
	}
	m.arguments = append(m.arguments, name)
	return true
}

// AddLocal appends a local name unless it is already declared.
func (m *MethodGen) AddLocal(name string) bool {
	if indexOf(m.locals, name) >= 0 {
		return false
	}
	m.locals = append(m.locals, name)
	return true
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// Literals returns the literal pool.
func (m *MethodGen) Literals() []vm.Value { return m.literals }

// AddLiteral appends lit to the pool and returns its index. It fails once
// the pool is full.
func (m *MethodGen) AddLiteral(lit vm.Value) (byte, bool) {
	if len(m.literals) >= maxLiterals {
		return 0, false
	}
	m.literals = append(m.literals, lit)
	return byte(len(m.literals) - 1), true
}

// AddLiteralIfAbsent returns the index of an equal literal, adding lit
// when there is none.
func (m *MethodGen) AddLiteralIfAbsent(lit vm.Value) (byte, bool) {
	if i := m.FindLiteral(lit); i >= 0 {
		return byte(i), true
	}
	return m.AddLiteral(lit)
}

// UpdateLiteral replaces the literal at index.
func (m *MethodGen) UpdateLiteral(index byte, lit vm.Value) {
	m.literals[index] = lit
}

// FindLiteral returns the index of a literal equal to lit, or -1. Numbers
// and strings compare by value, everything else by identity.
func (m *MethodGen) FindLiteral(lit vm.Value) int {
	for i, existing := range m.literals {
		if sameLiteral(existing, lit) {
			return i
		}
	}
	return -1
}

func sameLiteral(a, b vm.Value) bool {
	switch x := a.(type) {
	case vm.Integer:
		y, ok := b.(vm.Integer)
		return ok && x == y
	case vm.Double:
		y, ok := b.(vm.Double)
		return ok && x == y
	case *vm.BigInteger:
		y, ok := b.(*vm.BigInteger)
		return ok && x.Big().Cmp(y.Big()) == 0
	case *vm.String:
		y, ok := b.(*vm.String)
		return ok && x.String() == y.String()
	}
	return a == b
}

// ---------------------------------------------------------------------------
// Variable resolution
// ---------------------------------------------------------------------------

// Variable is the result of resolving a name lexically.
type Variable struct {
	Index      byte
	Level      byte // number of enclosing contexts to walk out
	IsArgument bool
}

// FindVar resolves name against the locals, then the arguments of this
// context, then of each enclosing context in turn.
func (m *MethodGen) FindVar(name string) (Variable, bool) {
	var level byte
	for g := m; g != nil; g = g.outer {
		if i := indexOf(g.locals, name); i >= 0 {
			return Variable{Index: byte(i), Level: level}, true
		}
		if i := indexOf(g.arguments, name); i >= 0 {
			return Variable{Index: byte(i), Level: level, IsArgument: true}, true
		}
		level++
	}
	return Variable{}, false
}

// FieldIndex returns the layout index of a field visible to the method.
func (m *MethodGen) FieldIndex(name *vm.Symbol) (int, bool) {
	return m.holder.FieldIndex(name)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Code
// ---------------------------------------------------------------------------

// Code returns the bytecode builder.
func (m *MethodGen) Code() *vm.BytecodeBuilder { return m.code }

// HasBytecodes reports whether any instruction was emitted.
func (m *MethodGen) HasBytecodes() bool { return m.code.Len() > 0 }

// RemoveLastPop drops a trailing POP.
func (m *MethodGen) RemoveLastPop() {
	if op, ok := m.code.Last(); ok && op == vm.OpPop {
		m.code.RemoveLast(1)
	}
}

// Assemble builds the invokable. A primitive body yields a placeholder the
// primitive provider replaces when the class is installed.
func (m *MethodGen) Assemble() vm.Invokable {
	if m.primitive {
		return vm.NewEmptyPrimitive(m.signature)
	}
	return m.AssembleMethod()
}

// AssembleMethod builds a bytecode method from the generated code.
func (m *MethodGen) AssembleMethod() *vm.Method {
	bc := m.code.Bytes()
	depth := vm.ComputeStackDepth(bc, func(literal int) int {
		if sig, ok := m.literals[literal].(*vm.Symbol); ok {
			return sig.NumArgs()
		}
		return 1
	})
	return vm.NewMethod(m.signature, bc, m.literals, len(m.locals), depth)
}
