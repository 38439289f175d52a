package vm

import "strings"

// ---------------------------------------------------------------------------
// Block Primitives
// ---------------------------------------------------------------------------

// evaluationSignature returns the selector that evaluates a block taking
// numArgs arguments including the block itself.
func evaluationSignature(numArgs int) string {
	switch numArgs {
	case 1:
		return "value"
	case 2:
		return "value:"
	}
	return "value:" + strings.Repeat("with:", numArgs-2)
}

// installBlockPrimitives returns the provider for the block class of one
// arity.
func installBlockPrimitives(numArgs int) PrimitiveProvider {
	return func(p *PrimitiveInstaller) {
		p.Instance(evaluationSignature(numArgs), func(in *Interpreter, frame *Frame) error {
			return evaluateBlock(in, frame, numArgs)
		})
	}
}

// evaluateBlock activates the block below the arguments on the caller's
// stack. The new frame's context is the frame the block was created in.
func evaluateBlock(in *Interpreter, frame *Frame, numArgs int) error {
	block, ok := frame.StackElement(numArgs - 1).(*Block)
	if !ok {
		return PrimitiveFailed.New("%s is not a block", describe(frame.StackElement(numArgs-1))).
			WithProperty(PropertySelector, evaluationSignature(numArgs))
	}
	f := in.PushNewFrame(block.method, block.context)
	f.CopyArgumentsFrom(frame)
	return nil
}
