package vm

import (
	"fmt"
)

// Shell evaluates statements one at a time. Each statement is wrapped in a
// fresh class whose run: method prints and answers the statement's value;
// the previous value is available to the next statement as it.
type Shell struct {
	u       *Universe
	counter int
	it      Value
}

// NewShell creates a shell over an initialized universe.
func NewShell(u *Universe) *Shell {
	return &Shell{u: u, it: u.Nil}
}

// It returns the value of the last successful statement.
func (s *Shell) It() Value { return s.it }

// Eval compiles and runs one statement, printing "it = <value>".
func (s *Shell) Eval(statement string) (Value, error) {
	name := fmt.Sprintf("Shell_Class_%d", s.counter)
	s.counter++
	source := fmt.Sprintf(
		"%s = ( run: it = ( | tmp | tmp := (%s ). 'it = ' print. ^tmp println ) )",
		name, statement)

	c, err := s.u.LoadClassFromSource(source, "shell")
	if err != nil {
		return nil, err
	}
	result, err := s.u.Execute(s.u.NewInstance(c), "run:", s.it)
	if err != nil {
		return nil, err
	}
	s.it = result
	return result, nil
}
