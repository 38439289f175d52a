package vm

import (
	"hash/fnv"
	"math"
	"reflect"
)

// ---------------------------------------------------------------------------
// Object Primitives
// ---------------------------------------------------------------------------

func installObjectPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("==", binary(func(self, arg Value) (Value, error) {
		return u.Boolean(self == arg), nil
	}))

	p.Instance("hashcode", unary(func(self Value) (Value, error) {
		return Integer(identityHash(self)), nil
	}))

	// The class pointer counts as one slot.
	p.Instance("objectSize", unary(func(self Value) (Value, error) {
		size := 1
		switch x := self.(type) {
		case *Array:
			size += x.Len()
		case fieldHolder:
			size += x.NumberOfFields()
		}
		return Integer(size), nil
	}))

	p.Instance("class", unary(func(self Value) (Value, error) {
		return u.ClassOf(self), nil
	}))

	p.Instance("halt", func(in *Interpreter, frame *Frame) error {
		in.u.errorPrintln("BREAKPOINT")
		return nil
	})

	// The perform family leaves the receiver (and spread arguments) on the
	// stack and activates the target in place of the perform send.
	p.Instance("perform:", func(in *Interpreter, frame *Frame) error {
		selector, err := symbolArg(frame.Pop(), "perform:")
		if err != nil {
			return err
		}
		self := frame.Top()
		return in.activateOrDNU(selector, u.ClassOf(self).LookupInvokable(selector))
	})

	p.Instance("perform:inSuperclass:", func(in *Interpreter, frame *Frame) error {
		class, err := classArg(frame.Pop(), "perform:inSuperclass:")
		if err != nil {
			return err
		}
		selector, err := symbolArg(frame.Pop(), "perform:inSuperclass:")
		if err != nil {
			return err
		}
		return in.activateOrDNU(selector, class.LookupInvokable(selector))
	})

	p.Instance("perform:withArguments:", func(in *Interpreter, frame *Frame) error {
		args, err := arrayArg(frame.Pop(), "perform:withArguments:")
		if err != nil {
			return err
		}
		selector, err := symbolArg(frame.Pop(), "perform:withArguments:")
		if err != nil {
			return err
		}
		if args.Len() != selector.NumArgs()-1 {
			return PrimitiveFailed.New("#%s expects %d arguments, got %d",
				selector, selector.NumArgs()-1, args.Len()).WithProperty(PropertySelector, "perform:withArguments:")
		}
		self := frame.Top()
		for _, a := range args.Elements() {
			frame.Push(a)
		}
		return in.activateOrDNU(selector, u.ClassOf(self).LookupInvokable(selector))
	})

	p.Instance("instVarAt:", binary(func(self, arg Value) (Value, error) {
		idx, err := integerArg(arg, "instVarAt:")
		if err != nil {
			return nil, err
		}
		holder, err := fieldIndex(self, idx, "instVarAt:")
		if err != nil {
			return nil, err
		}
		if v := holder.Field(int(idx - 1)); v != nil {
			return v, nil
		}
		return u.Nil, nil
	}))

	p.Instance("instVarAt:put:", func(in *Interpreter, frame *Frame) error {
		value := frame.Pop()
		idx, err := integerArg(frame.Pop(), "instVarAt:put:")
		if err != nil {
			return err
		}
		holder, err := fieldIndex(frame.Top(), idx, "instVarAt:put:")
		if err != nil {
			return err
		}
		holder.SetField(int(idx-1), value)
		return nil
	})
}

func fieldIndex(self Value, idx int64, selector string) (fieldHolder, error) {
	holder, ok := self.(fieldHolder)
	if !ok || idx < 1 || idx > int64(holder.NumberOfFields()) {
		return nil, PrimitiveFailed.New("%s: index %d out of bounds for %s", selector, idx, describe(self)).
			WithProperty(PropertySelector, selector)
	}
	return holder, nil
}

// identityHash answers a hash stable for the lifetime of a value. Numbers
// and strings hash by value so equal literals agree.
func identityHash(v Value) int64 {
	switch x := v.(type) {
	case Integer:
		return int64(x)
	case Double:
		return int64(math.Float64bits(float64(x)))
	case *BigInteger:
		return hashString(x.v.String())
	case *String:
		return hashString(x.s)
	case *Symbol:
		return hashString(x.name)
	}
	return int64(reflect.ValueOf(v).Pointer())
}

func hashString(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() >> 1)
}
