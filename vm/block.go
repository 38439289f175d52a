package vm

// Block is a closure: a block method and the frame that was active when the
// block literal was evaluated. The block is only safe to return from while
// that frame's enclosing method activation is live.
type Block struct {
	method  *Method
	context *Frame
	class   *Class
}

// NewBlock creates a block over method closing over context. Its class is
// the block class for the method's arity.
func (u *Universe) NewBlock(method *Method, context *Frame) (*Block, error) {
	class, err := u.BlockClassFor(method.NumArgs())
	if err != nil {
		return nil, err
	}
	return &Block{method: method, context: context, class: class}, nil
}

// Method returns the compiled block body.
func (b *Block) Method() *Method { return b.method }

// Context returns the captured frame.
func (b *Block) Context() *Frame { return b.context }

// NumArgs returns the arity including the block itself.
func (b *Block) NumArgs() int { return b.method.NumArgs() }
