package vm

import (
	"fmt"

	"github.com/joomcode/errorx"
)

var (
	// Errors is the namespace for runtime failures that escape the object
	// language: host faults inside primitives, lookups the bootstrap needs,
	// and class path problems.
	Errors = errorx.NewNamespace("som.vm")

	// PrimitiveFailed reports a primitive invoked with operands it cannot handle.
	PrimitiveFailed = Errors.NewType("primitive_failed")
	// LookupFailed reports a missing class or a missing method the runtime relies on.
	LookupFailed = Errors.NewType("lookup_failed")
	// ClassNotFound reports a class missing from every class path entry.
	ClassNotFound = LookupFailed.NewSubtype("class_not_found")
	// BootstrapFailed reports a universe that could not be initialized.
	BootstrapFailed = Errors.NewType("bootstrap_failed")
	// BadBytecode reports an instruction the interpreter cannot decode.
	BadBytecode = Errors.NewType("bad_bytecode")
	// Exit is returned by the interpreter when System>>exit: is sent.
	Exit = Errors.NewType("exit")

	// PropertyExitCode carries the code passed to exit:.
	PropertyExitCode = errorx.RegisterProperty("exit_code")
	// PropertySelector names the primitive or selector involved.
	PropertySelector = errorx.RegisterProperty("selector")
)

// ExitCode returns the code of an Exit error and whether err was one.
func ExitCode(err error) (int, bool) {
	e := errorx.Cast(err)
	if e == nil || !e.IsOfType(Exit) {
		return 0, false
	}
	code, ok := e.Property(PropertyExitCode)
	if !ok {
		return 0, true
	}
	return code.(int), true
}

func notANumber(v Value) error {
	return PrimitiveFailed.New("%s is not a number", describe(v))
}

func notAnInteger(v Value) error {
	return PrimitiveFailed.New("%s is not an integer", describe(v))
}

func errDivisionByZero() error {
	return PrimitiveFailed.New("division by zero")
}

func describe(v Value) string {
	switch x := v.(type) {
	case nil:
		return "<host nil>"
	case *Symbol:
		return "#" + x.name
	case *String:
		return fmt.Sprintf("'%s'", x.s)
	case *Class:
		return x.Name().String()
	case *Object:
		return "instance of " + x.class.Name().String()
	case Integer, *BigInteger, Double:
		return FormatNumber(v)
	}
	return fmt.Sprintf("%T", v)
}
