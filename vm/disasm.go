package vm

import (
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// Disassemble writes every invokable of c. Block literals are dumped inline
// under the instruction that pushes them.
func Disassemble(w io.Writer, c *Class) {
	for _, inv := range c.InstanceInvokables() {
		fmt.Fprintf(w, "%s>>#%s = ", c.Name(), inv.Signature())
		m, ok := inv.(*Method)
		if !ok {
			fmt.Fprintln(w, "<primitive>")
			continue
		}
		DisassembleMethod(w, m, "\t")
	}
}

// DisassembleMethod writes the header and instructions of m.
func DisassembleMethod(w io.Writer, m *Method, indent string) {
	fmt.Fprintln(w, "(")
	fmt.Fprintf(w, "%s<%d locals, %d stack, %d bc_count>\n", indent, m.NumLocals(), m.MaxStack(), len(m.bytecodes))

	r := NewBytecodeReader(m.bytecodes)
	for r.HasMore() {
		pos := r.Position()
		op, operands := r.Next()
		fmt.Fprintf(w, "%s%4d:%-16s  ", indent, pos, op.Name())
		if len(operands) == 0 {
			fmt.Fprintln(w)
			continue
		}
		switch op {
		case OpPushLocal, OpPopLocal:
			fmt.Fprintf(w, "local: %d, context: %d\n", operands[0], operands[1])
		case OpPushArgument, OpPopArgument:
			fmt.Fprintf(w, "argument: %d, context: %d\n", operands[0], operands[1])
		case OpPushField, OpPopField:
			fmt.Fprintf(w, "(index: %d) field: %s\n", operands[0], fieldNameOf(m, int(operands[0])))
		case OpPushBlock:
			fmt.Fprintf(w, "block: (index: %d) ", operands[0])
			if block, ok := literalAt(m, operands[0]).(*Method); ok {
				DisassembleMethod(w, block, indent+"\t")
			} else {
				fmt.Fprintln(w, "<not a method>")
			}
		case OpPushConstant:
			fmt.Fprintf(w, "(index: %d) value: %s\n", operands[0], describeLiteral(literalAt(m, operands[0])))
		case OpPushGlobal, OpSend, OpSuperSend:
			label := "value"
			if op != OpPushGlobal {
				label = "signature"
			}
			fmt.Fprintf(w, "(index: %d) %s: %s\n", operands[0], label, describeLiteral(literalAt(m, operands[0])))
		default:
			fmt.Fprintln(w, "<incorrect bytecode>")
		}
	}
	fmt.Fprintf(w, "%s)\n", strings.TrimSuffix(indent, "\t"))
}

// DisassembleString returns the dump of c as text.
func DisassembleString(c *Class) string {
	var b strings.Builder
	Disassemble(&b, c)
	return b.String()
}

func literalAt(m *Method, index byte) Value {
	if int(index) >= len(m.literals) {
		return nil
	}
	return m.literals[index]
}

func fieldNameOf(m *Method, index int) string {
	if m.holder == nil {
		return "?"
	}
	if name := m.holder.InstanceFieldName(index); name != nil {
		return name.String()
	}
	return "?"
}

func describeLiteral(v Value) string {
	switch x := v.(type) {
	case nil:
		return "<missing>"
	case *Symbol:
		return "(Symbol) " + x.name
	case *String:
		return fmt.Sprintf("(String) '%s'", x.s)
	case Integer, *BigInteger:
		return "(Integer) " + FormatNumber(v)
	case Double:
		return "(Double) " + FormatNumber(v)
	case *Method:
		return "(Method) " + x.signature.name
	}
	return describe(v)
}
