package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Control
const (
	OpHalt Opcode = 0 // stop the interpreter, answering top of stack
	OpDup  Opcode = 1 // duplicate top of stack
)

// Push
const (
	OpPushLocal    Opcode = 2 // push local (index, context level)
	OpPushArgument Opcode = 3 // push argument (index, context level)
	OpPushField    Opcode = 4 // push field of self (field index)
	OpPushBlock    Opcode = 5 // push new block over a block method (literal index)
	OpPushConstant Opcode = 6 // push literal (literal index)
	OpPushGlobal   Opcode = 7 // push global named by a symbol (literal index)
)

// Pop
const (
	OpPop         Opcode = 8  // discard top of stack
	OpPopLocal    Opcode = 9  // store into local (index, context level)
	OpPopArgument Opcode = 10 // store into argument (index, context level)
	OpPopField    Opcode = 11 // store into field of self (field index)
)

// Sends and returns
const (
	OpSend           Opcode = 12 // send selector (literal index)
	OpSuperSend      Opcode = 13 // send selector starting at the holder's superclass
	OpReturnLocal    Opcode = 14 // return from the current activation
	OpReturnNonLocal Opcode = 15 // return from the lexically enclosing method
)

// NumOpcodes is the size of the instruction set.
const NumOpcodes = 16

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string
	Length      int // encoded length including the opcode byte
	StackEffect int // net stack change; sends are computed from the selector
}

var opcodeTable = [NumOpcodes]OpcodeInfo{
	OpHalt: {"HALT", 1, 0},
	OpDup:  {"DUP", 1, 1},

	OpPushLocal:    {"PUSH_LOCAL", 3, 1},
	OpPushArgument: {"PUSH_ARGUMENT", 3, 1},
	OpPushField:    {"PUSH_FIELD", 2, 1},
	OpPushBlock:    {"PUSH_BLOCK", 2, 1},
	OpPushConstant: {"PUSH_CONSTANT", 2, 1},
	OpPushGlobal:   {"PUSH_GLOBAL", 2, 1},

	OpPop:         {"POP", 1, -1},
	OpPopLocal:    {"POP_LOCAL", 3, -1},
	OpPopArgument: {"POP_ARGUMENT", 3, -1},
	OpPopField:    {"POP_FIELD", 2, -1},

	OpSend:           {"SEND", 2, 0},
	OpSuperSend:      {"SUPER_SEND", 2, 0},
	OpReturnLocal:    {"RETURN_LOCAL", 1, 0},
	OpReturnNonLocal: {"RETURN_NON_LOCAL", 1, 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if int(op) < NumOpcodes {
		return opcodeTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), Length: 1}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// Length returns the encoded length of an instruction.
func (op Opcode) Length() int {
	return op.Info().Length
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// IsSend reports whether the instruction dispatches a message.
func (op Opcode) IsSend() bool {
	return op == OpSend || op == OpSuperSend
}

// ---------------------------------------------------------------------------
// BytecodeBuilder: Helper for constructing bytecode
// ---------------------------------------------------------------------------

// BytecodeBuilder helps construct bytecode sequences.
type BytecodeBuilder struct {
	bytes []byte
}

// NewBytecodeBuilder creates a new bytecode builder.
func NewBytecodeBuilder() *BytecodeBuilder {
	return &BytecodeBuilder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the constructed bytecode.
func (b *BytecodeBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *BytecodeBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode with no operands.
func (b *BytecodeBuilder) Emit(op Opcode) {
	b.bytes = append(b.bytes, byte(op))
}

// EmitByte appends an opcode with a single byte operand.
func (b *BytecodeBuilder) EmitByte(op Opcode, operand byte) {
	b.bytes = append(b.bytes, byte(op), operand)
}

// EmitVariable appends an opcode with an (index, context level) pair.
func (b *BytecodeBuilder) EmitVariable(op Opcode, index, level byte) {
	b.bytes = append(b.bytes, byte(op), index, level)
}

// Last returns the opcode of the most recently emitted instruction, assuming
// the caller knows the last instruction had no operands.
func (b *BytecodeBuilder) Last() (Opcode, bool) {
	if len(b.bytes) == 0 {
		return 0, false
	}
	return Opcode(b.bytes[len(b.bytes)-1]), true
}

// RemoveLast drops the last n bytes.
func (b *BytecodeBuilder) RemoveLast(n int) {
	b.bytes = b.bytes[:len(b.bytes)-n]
}

// ---------------------------------------------------------------------------
// BytecodeReader: Helper for walking bytecode
// ---------------------------------------------------------------------------

// BytecodeReader iterates over encoded instructions.
type BytecodeReader struct {
	bc  []byte
	pos int
}

// NewBytecodeReader creates a reader positioned at the first instruction.
func NewBytecodeReader(bc []byte) *BytecodeReader {
	return &BytecodeReader{bc: bc}
}

// Position returns the offset of the next instruction.
func (r *BytecodeReader) Position() int {
	return r.pos
}

// HasMore reports whether instructions remain.
func (r *BytecodeReader) HasMore() bool {
	return r.pos < len(r.bc)
}

// Next decodes one instruction and returns its opcode and operand bytes.
func (r *BytecodeReader) Next() (Opcode, []byte) {
	op := Opcode(r.bc[r.pos])
	end := r.pos + op.Length()
	if end > len(r.bc) {
		end = len(r.bc)
	}
	operands := r.bc[r.pos+1 : end]
	r.pos = end
	return op, operands
}

// ---------------------------------------------------------------------------
// Stack depth
// ---------------------------------------------------------------------------

// ComputeStackDepth walks bytecodes linearly and returns the peak operand
// stack depth. selectorAt resolves the literal operand of a send to its
// argument count (receiver included).
func ComputeStackDepth(bc []byte, selectorArgs func(literal int) int) int {
	depth, max := 0, 0
	r := NewBytecodeReader(bc)
	for r.HasMore() {
		op, operands := r.Next()
		if op.IsSend() {
			depth += 1 - selectorArgs(int(operands[0]))
		} else {
			depth += op.Info().StackEffect
		}
		if depth > max {
			max = depth
		}
	}
	return max
}
