package vm

import (
	"unicode"
)

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

func installStringPrimitives(p *PrimitiveInstaller) {
	u := p.Universe()

	p.Instance("concatenate:", binary(func(self, arg Value) (Value, error) {
		left, err := stringArg(self, "concatenate:")
		if err != nil {
			return nil, err
		}
		right, err := stringArg(arg, "concatenate:")
		if err != nil {
			return nil, err
		}
		return NewString(left + right), nil
	}))

	p.Instance("asSymbol", unary(func(self Value) (Value, error) {
		s, err := stringArg(self, "asSymbol")
		if err != nil {
			return nil, err
		}
		return u.SymbolFor(s), nil
	}))

	p.Instance("length", unary(func(self Value) (Value, error) {
		s, err := stringArg(self, "length")
		if err != nil {
			return nil, err
		}
		return Integer(len(s)), nil
	}))

	// Strings are equal to strings with the same text; a symbol is only
	// equal to itself, which Symbol>>= handles.
	p.Instance("=", binary(func(self, arg Value) (Value, error) {
		left, ok := self.(*String)
		if !ok {
			return u.False, nil
		}
		right, ok := arg.(*String)
		return u.Boolean(ok && left.s == right.s), nil
	}))

	p.Instance("primSubstringFrom:to:", func(in *Interpreter, frame *Frame) error {
		end, err := integerArg(frame.Pop(), "primSubstringFrom:to:")
		if err != nil {
			return err
		}
		start, err := integerArg(frame.Pop(), "primSubstringFrom:to:")
		if err != nil {
			return err
		}
		s, err := stringArg(frame.Pop(), "primSubstringFrom:to:")
		if err != nil {
			return err
		}
		if start < 1 || end > int64(len(s)) || start > end+1 {
			frame.Push(NewString("Error - index out of bounds"))
			return nil
		}
		frame.Push(NewString(s[start-1 : end]))
		return nil
	})

	p.Instance("hashcode", unary(func(self Value) (Value, error) {
		s, err := stringArg(self, "hashcode")
		if err != nil {
			return nil, err
		}
		return Integer(hashString(s)), nil
	}))

	p.Instance("isWhiteSpace", stringPredicate(u, "isWhiteSpace", unicode.IsSpace))
	p.Instance("isLetters", stringPredicate(u, "isLetters", unicode.IsLetter))
	p.Instance("isDigits", stringPredicate(u, "isDigits", unicode.IsDigit))
}

// stringPredicate answers true when the receiver is not empty and every
// rune satisfies pred.
func stringPredicate(u *Universe, selector string, pred func(rune) bool) PrimitiveFunc {
	return unary(func(self Value) (Value, error) {
		s, err := stringArg(self, selector)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return u.False, nil
		}
		for _, r := range s {
			if !pred(r) {
				return u.False, nil
			}
		}
		return u.True, nil
	})
}
