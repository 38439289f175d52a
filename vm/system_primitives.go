package vm

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joomcode/errorx"
)

// ---------------------------------------------------------------------------
// System Primitives
// ---------------------------------------------------------------------------

func installSystemPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("load:", binary(func(_, arg Value) (Value, error) {
		name, err := symbolArg(arg, "load:")
		if err != nil {
			return nil, err
		}
		c, err := u.LoadClass(name)
		if errorx.IsOfType(err, ClassNotFound) {
			return u.Nil, nil
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}))

	p.Instance("exit:", func(in *Interpreter, frame *Frame) error {
		code, err := integerArg(frame.Pop(), "exit:")
		if err != nil {
			return err
		}
		return Exit.New("exit %d", code).WithProperty(PropertyExitCode, int(code))
	})

	p.Instance("global:", binary(func(_, arg Value) (Value, error) {
		name, err := symbolArg(arg, "global:")
		if err != nil {
			return nil, err
		}
		if v, ok := u.Global(name); ok {
			return v, nil
		}
		return u.Nil, nil
	}))

	p.Instance("global:put:", func(in *Interpreter, frame *Frame) error {
		value := frame.Pop()
		name, err := symbolArg(frame.Pop(), "global:put:")
		if err != nil {
			return err
		}
		u.SetGlobal(name, value)
		return nil
	})

	p.Instance("printString:", printPrimitive(u, "printString:", u.print))
	p.Instance("errorPrint:", printPrimitive(u, "errorPrint:", u.errorPrint))
	p.Instance("errorPrintln:", printPrimitive(u, "errorPrintln:", u.errorPrintln))

	p.Instance("printNewline", func(in *Interpreter, frame *Frame) error {
		u.println("")
		return nil
	})

	p.Instance("printStackTrace", func(in *Interpreter, frame *Frame) error {
		frame.Pop()
		frame.PrintStackTrace(u.Stderr)
		frame.Push(u.True)
		return nil
	})

	p.Instance("loadFile:", binary(func(_, arg Value) (Value, error) {
		name, err := stringArg(arg, "loadFile:")
		if err != nil {
			return nil, err
		}
		data, rerr := os.ReadFile(name)
		if rerr != nil {
			return u.Nil, nil
		}
		return NewString(string(data)), nil
	}))

	p.Instance("fullGC", unary(func(Value) (Value, error) {
		runtime.GC()
		return u.True, nil
	}))

	p.Instance("ticks", unary(func(Value) (Value, error) {
		return Integer(time.Since(u.startTime).Microseconds()), nil
	}))

	p.Instance("time", unary(func(Value) (Value, error) {
		return Integer(time.Since(u.startTime).Milliseconds()), nil
	}))
}

// printPrimitive pops a string argument, writes it and answers the receiver.
func printPrimitive(u *Universe, selector string, write func(string)) PrimitiveFunc {
	return func(in *Interpreter, frame *Frame) error {
		s, err := stringArg(frame.Pop(), selector)
		if err != nil {
			return err
		}
		write(s)
		return nil
	}
}

func (u *Universe) print(s string)        { fmt.Fprint(u.Stdout, s) }
func (u *Universe) println(s string)      { fmt.Fprintln(u.Stdout, s) }
func (u *Universe) errorPrint(s string)   { fmt.Fprint(u.Stderr, s) }
func (u *Universe) errorPrintln(s string) { fmt.Fprintln(u.Stderr, s) }
