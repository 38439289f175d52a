package vm

import (
	"fmt"
	"io"
)

// Frame is one activation of a method or block. A single slice holds the
// arguments, then the locals, then the operand stack.
//
// previous links the dynamic call chain; context links a block activation
// to the activation it was created in. A context may be popped while
// blocks still refer to it; onStack tells whether it is still live.
type Frame struct {
	previous *Frame
	context  *Frame
	method   *Method

	values      []Value
	sp          int // index of the top of stack
	localOffset int
	bcIndex     int
	onStack     bool
}

func newFrame(u *Universe, previous *Frame, method *Method, context *Frame) *Frame {
	numArgs := method.NumArgs()
	size := numArgs + method.NumLocals() + method.MaxStack() + 2
	f := &Frame{
		previous:    previous,
		context:     context,
		method:      method,
		values:      make([]Value, size),
		localOffset: numArgs,
		onStack:     true,
	}
	for i := range f.values {
		f.values[i] = u.Nil
	}
	f.sp = numArgs + method.NumLocals() - 1
	return f
}

// Method returns the method being executed.
func (f *Frame) Method() *Method { return f.method }

// Previous returns the calling frame, or nil once f has been popped.
func (f *Frame) Previous() *Frame { return f.previous }

// Context returns the frame a block was created in, or nil for a method.
func (f *Frame) Context() *Frame { return f.context }

// HasContext reports whether f is a block activation.
func (f *Frame) HasContext() bool { return f.context != nil }

// IsLive reports whether f is still on the call stack.
func (f *Frame) IsLive() bool { return f.onStack }

// BytecodeIndex returns the offset of the next instruction.
func (f *Frame) BytecodeIndex() int { return f.bcIndex }

// ContextAt follows the context chain level links outward.
func (f *Frame) ContextAt(level int) *Frame {
	c := f
	for ; level > 0; level-- {
		c = c.context
	}
	return c
}

// OuterContext returns the method activation at the end of the context chain.
func (f *Frame) OuterContext() *Frame {
	c := f
	for c.context != nil {
		c = c.context
	}
	return c
}

// Self returns the receiver of the enclosing method activation.
func (f *Frame) Self() Value {
	return f.OuterContext().values[0]
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Push pushes v. The stack grows past the computed depth only for
// primitives that spread arrays onto it, such as perform:withArguments:.
func (f *Frame) Push(v Value) {
	f.sp++
	if f.sp == len(f.values) {
		f.values = append(f.values, nil)
	}
	f.values[f.sp] = v
}

// Pop removes and returns the top of stack.
func (f *Frame) Pop() Value {
	v := f.values[f.sp]
	f.sp--
	return v
}

// Top returns the top of stack.
func (f *Frame) Top() Value { return f.values[f.sp] }

// StackElement returns the element depth slots below the top.
func (f *Frame) StackElement(depth int) Value { return f.values[f.sp-depth] }

// StackDepth returns the number of values on the operand stack.
func (f *Frame) StackDepth() int {
	return f.sp - (f.localOffset + f.method.NumLocals()) + 1
}

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

// Local returns a local of the frame level links up the context chain.
func (f *Frame) Local(index, level int) Value {
	c := f.ContextAt(level)
	return c.values[c.localOffset+index]
}

// SetLocal stores v in a local.
func (f *Frame) SetLocal(index, level int, v Value) {
	c := f.ContextAt(level)
	c.values[c.localOffset+index] = v
}

// Argument returns an argument; index 0 is the receiver.
func (f *Frame) Argument(index, level int) Value {
	return f.ContextAt(level).values[index]
}

// SetArgument stores v in an argument slot.
func (f *Frame) SetArgument(index, level int, v Value) {
	f.ContextAt(level).values[index] = v
}

// CopyArgumentsFrom moves the receiver and arguments from the top of the
// caller's stack into f. They stay on the caller's stack until the callee
// returns.
func (f *Frame) CopyArgumentsFrom(caller *Frame) {
	n := f.method.NumArgs()
	for i := 0; i < n; i++ {
		f.values[i] = caller.StackElement(n - 1 - i)
	}
}

// PrintStackTrace writes the call chain, innermost frame last.
func (f *Frame) PrintStackTrace(w io.Writer) {
	if f.previous != nil {
		f.previous.PrintStackTrace(w)
	}
	if f.HasContext() {
		home := f.OuterContext().method
		fmt.Fprintf(w, "[] in %s>>#%s @bi: %d\n", holderName(home), home.Signature(), f.BytecodeIndex())
		return
	}
	fmt.Fprintf(w, "%s>>#%s @bi: %d\n", holderName(f.method), f.method.Signature(), f.BytecodeIndex())
}
