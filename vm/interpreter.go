package vm

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Interpreter: Bytecode execution engine
// ---------------------------------------------------------------------------

// Interpreter executes bytecode on a linked stack of frames. It is not safe
// for concurrent use; callers serialize access to a Universe.
type Interpreter struct {
	u     *Universe
	frame *Frame // current frame

	// Well-known selectors sent by the interpreter itself
	selectorDNU           *Symbol
	selectorEscapedBlock  *Symbol
	selectorUnknownGlobal *Symbol
}

func newInterpreter(u *Universe) *Interpreter {
	return &Interpreter{
		u:                     u,
		selectorDNU:           u.SymbolFor("doesNotUnderstand:arguments:"),
		selectorEscapedBlock:  u.SymbolFor("escapedBlock:"),
		selectorUnknownGlobal: u.SymbolFor("unknownGlobal:"),
	}
}

// Universe returns the universe the interpreter runs in.
func (in *Interpreter) Universe() *Universe { return in.u }

// Frame returns the current frame.
func (in *Interpreter) Frame() *Frame { return in.frame }

// PushNewFrame activates method on top of the current frame. context is
// the defining frame for blocks and nil for methods.
func (in *Interpreter) PushNewFrame(method *Method, context *Frame) *Frame {
	in.frame = newFrame(in.u, in.frame, method, context)
	return in.frame
}

// PopFrame removes the current frame and marks it dead, so blocks created
// in it can tell their home is gone.
func (in *Interpreter) PopFrame() *Frame {
	f := in.frame
	in.frame = f.previous
	f.previous = nil
	f.onStack = false
	return f
}

// popFrameAndPushResult returns from the current frame: the caller drops
// the receiver and arguments it pushed and receives result.
func (in *Interpreter) popFrameAndPushResult(result Value) {
	f := in.PopFrame()
	for i := 0; i < f.method.NumArgs(); i++ {
		in.frame.Pop()
	}
	in.frame.Push(result)
}

// Start runs until a HALT instruction and answers the value on top of the
// stack of the halting frame.
func (in *Interpreter) Start() (Value, error) {
	for {
		frame := in.frame
		method := frame.method
		bc := method.bytecodes
		bi := frame.bcIndex
		if in.u.checkStack && frame.StackDepth() > method.maxStack {
			return nil, BadBytecode.New("stack depth %d exceeds maximum %d at %s>>#%s @bi: %d",
				frame.StackDepth(), method.maxStack, holderName(method), method.Signature(), bi)
		}
		op := Opcode(bc[bi])
		frame.bcIndex = bi + op.Length()

		switch op {
		case OpHalt:
			return frame.Top(), nil

		case OpDup:
			frame.Push(frame.Top())

		// --- Push ---
		case OpPushLocal:
			frame.Push(frame.Local(int(bc[bi+1]), int(bc[bi+2])))

		case OpPushArgument:
			frame.Push(frame.Argument(int(bc[bi+1]), int(bc[bi+2])))

		case OpPushField:
			frame.Push(in.fieldOf(frame.Self(), int(bc[bi+1])))

		case OpPushBlock:
			blockMethod := method.Literal(int(bc[bi+1])).(*Method)
			block, err := in.u.NewBlock(blockMethod, frame)
			if err != nil {
				return nil, err
			}
			frame.Push(block)

		case OpPushConstant:
			frame.Push(method.Literal(int(bc[bi+1])))

		case OpPushGlobal:
			name := method.Literal(int(bc[bi+1])).(*Symbol)
			if global, ok := in.u.Global(name); ok {
				frame.Push(global)
				break
			}
			if err := in.Send(in.selectorUnknownGlobal, frame.Self(), name); err != nil {
				return nil, err
			}

		// --- Pop ---
		case OpPop:
			frame.Pop()

		case OpPopLocal:
			frame.SetLocal(int(bc[bi+1]), int(bc[bi+2]), frame.Pop())

		case OpPopArgument:
			frame.SetArgument(int(bc[bi+1]), int(bc[bi+2]), frame.Pop())

		case OpPopField:
			if err := in.setFieldOf(frame.Self(), int(bc[bi+1]), frame.Pop()); err != nil {
				return nil, err
			}

		// --- Sends ---
		case OpSend:
			if err := in.doSend(frame, bi); err != nil {
				return nil, err
			}

		case OpSuperSend:
			if err := in.doSuperSend(frame, bi); err != nil {
				return nil, err
			}

		// --- Returns ---
		case OpReturnLocal:
			in.popFrameAndPushResult(frame.Pop())

		case OpReturnNonLocal:
			if err := in.doReturnNonLocal(frame); err != nil {
				return nil, err
			}

		default:
			return nil, BadBytecode.New(
				"unknown bytecode %d at %s>>#%s @bi: %d", op, holderName(method), method.Signature(), bi)
		}
	}
}

func (in *Interpreter) fieldOf(self Value, index int) Value {
	holder, ok := self.(fieldHolder)
	if !ok || index >= holder.NumberOfFields() {
		return in.u.Nil
	}
	if v := holder.Field(index); v != nil {
		return v
	}
	return in.u.Nil
}

func (in *Interpreter) setFieldOf(self Value, index int, v Value) error {
	holder, ok := self.(fieldHolder)
	if !ok || index >= holder.NumberOfFields() {
		return PrimitiveFailed.New("%s has no field %d", describe(self), index+1)
	}
	holder.SetField(index, v)
	return nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func (in *Interpreter) doSend(frame *Frame, bi int) error {
	selector := frame.method.Literal(int(frame.method.bytecodes[bi+1])).(*Symbol)
	receiver := frame.StackElement(selector.NumArgs() - 1)
	class := in.u.ClassOf(receiver)

	cache := &frame.method.cache
	inv := cache.Lookup(bi, class)
	if inv == nil {
		inv = class.LookupInvokable(selector)
		cache.Update(bi, class, inv)
	}
	return in.activateOrDNU(selector, inv)
}

func (in *Interpreter) doSuperSend(frame *Frame, bi int) error {
	selector := frame.method.Literal(int(frame.method.bytecodes[bi+1])).(*Symbol)
	var inv Invokable
	if holder := frame.method.Holder(); holder != nil && holder.Superclass() != nil {
		inv = holder.Superclass().LookupInvokable(selector)
	}
	return in.activateOrDNU(selector, inv)
}

// activateOrDNU invokes inv over the receiver and arguments on the current
// stack, or sends doesNotUnderstand:arguments: when nothing was found.
func (in *Interpreter) activateOrDNU(selector *Symbol, inv Invokable) error {
	if inv != nil {
		return inv.Invoke(in, in.frame)
	}
	return in.sendDoesNotUnderstand(selector)
}

func (in *Interpreter) sendDoesNotUnderstand(selector *Symbol) error {
	frame := in.frame
	numArgs := selector.NumArgs()
	args := in.u.NewArray(numArgs - 1)
	for i := numArgs - 2; i >= 0; i-- {
		args.Put(i, frame.Pop())
	}
	receiver := frame.Pop()

	class := in.u.ClassOf(receiver)
	handler := class.LookupInvokable(in.selectorDNU)
	if handler == nil {
		return LookupFailed.New("%s does not understand #%s and has no #%s",
			describe(receiver), selector, in.selectorDNU).WithProperty(PropertySelector, selector.String())
	}
	frame.Push(receiver)
	frame.Push(selector)
	frame.Push(args)
	return handler.Invoke(in, frame)
}

// Send pushes receiver and args on the current frame and dispatches
// selector. For a bytecode method this only activates the new frame; the
// loop in Start runs it.
func (in *Interpreter) Send(selector *Symbol, receiver Value, args ...Value) error {
	frame := in.frame
	frame.Push(receiver)
	for _, a := range args {
		frame.Push(a)
	}
	inv := in.u.ClassOf(receiver).LookupInvokable(selector)
	return in.activateOrDNU(selector, inv)
}

// doReturnNonLocal returns from the method that lexically encloses the
// current block. When that activation is gone the block has escaped, and
// the block is handed to escapedBlock: of the object that invoked it.
func (in *Interpreter) doReturnNonLocal(frame *Frame) error {
	result := frame.Pop()
	context := frame.OuterContext()

	if !context.IsLive() {
		block := frame.Argument(0, 0)
		sender := frame.previous.Self()
		numArgs := frame.method.NumArgs()

		in.PopFrame()
		for i := 0; i < numArgs; i++ {
			in.frame.Pop()
		}
		return in.Send(in.selectorEscapedBlock, sender, block)
	}

	for in.frame != context {
		in.PopFrame()
	}
	in.popFrameAndPushResult(result)
	return nil
}

func holderName(m *Method) string {
	if m.holder == nil {
		return "nil"
	}
	return m.holder.Name().String()
}

// StackTrace renders the current call chain.
func (in *Interpreter) StackTrace() string {
	if in.frame == nil {
		return ""
	}
	var b strings.Builder
	in.frame.PrintStackTrace(&b)
	return b.String()
}
