package compiler

import (
	"fmt"
	"strings"

	"github.com/joomcode/errorx"
)

var (
	// Errors is the namespace for compile-time failures.
	Errors = errorx.NewNamespace("som.compiler")

	// DefinitionError reports a program that is well formed but cannot be
	// assembled: a missing superclass, an undeclared field or an
	// overflowing literal pool.
	DefinitionError = Errors.NewType("definition_error")
	// ParseError reports source that does not follow the grammar.
	ParseError = DefinitionError.NewSubtype("parse_error")

	PropertyFile     = errorx.RegisterPrintableProperty("file")
	PropertyLine     = errorx.RegisterPrintableProperty("line")
	PropertyColumn   = errorx.RegisterPrintableProperty("column")
	PropertyExpected = errorx.RegisterProperty("expected")
	PropertyFound    = errorx.RegisterProperty("found")
	PropertySource   = errorx.RegisterProperty("source_line")
)

// Position is where a compile error was detected.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// ErrorPosition extracts the position attached to a compile error.
func ErrorPosition(err error) (Position, bool) {
	e := errorx.Cast(err)
	if e == nil || !e.IsOfType(DefinitionError) {
		return Position{}, false
	}
	var p Position
	if v, ok := e.Property(PropertyFile); ok {
		p.File, _ = v.(string)
	}
	if v, ok := e.Property(PropertyLine); ok {
		p.Line, _ = v.(int)
	}
	if v, ok := e.Property(PropertyColumn); ok {
		p.Column, _ = v.(int)
	}
	return p, true
}

// Describe renders a compile error the way command line tools print it:
// file:line:col: error: message: source line.
func Describe(err error) string {
	e := errorx.Cast(err)
	pos, ok := ErrorPosition(err)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: error: %s", pos, e.Message())
	if src, ok := e.Property(PropertySource); ok && src.(string) != "" {
		fmt.Fprintf(&b, ": %s", src)
	}
	if cause := e.Cause(); cause != nil {
		fmt.Fprintf(&b, "\n  caused by: %s", Describe(cause))
	}
	return b.String()
}

// compileFailure carries a compile error through the parser's panic path.
type compileFailure struct {
	err *errorx.Error
}

// fail aborts parsing with a DefinitionError at the current position.
func (p *Parser) fail(typ *errorx.Type, format string, args ...any) {
	panic(compileFailure{p.errorAt(typ, fmt.Sprintf(format, args...))})
}

// unexpected aborts parsing because the current token is not one of
// expected.
func (p *Parser) unexpected(expected ...TokenType) {
	names := make([]string, len(expected))
	for i, t := range expected {
		names[i] = t.String()
	}
	want := strings.Join(names, ", ")
	if len(expected) > 1 {
		want = "one of: " + want
	}
	err := p.errorAt(ParseError, fmt.Sprintf("unexpected symbol, expected %s, but found: %s", want, p.sym)).
		WithProperty(PropertyExpected, want).
		WithProperty(PropertyFound, p.sym.String())
	panic(compileFailure{err})
}

// failWrapping aborts parsing with an error of typ at the current position
// that keeps cause, so errors inside other class files stay reportable.
func (p *Parser) failWrapping(cause error, typ *errorx.Type, format string, args ...any) {
	panic(compileFailure{p.positioned(typ.Wrap(cause, format, args...))})
}

func (p *Parser) errorAt(typ *errorx.Type, msg string) *errorx.Error {
	return p.positioned(typ.New("%s", msg))
}

func (p *Parser) positioned(e *errorx.Error) *errorx.Error {
	line, col := p.sym.Line, p.sym.Column
	if line == 0 {
		line, col = p.lexer.Line(), p.lexer.Column()
	}
	return e.
		WithProperty(PropertyFile, p.filename).
		WithProperty(PropertyLine, line).
		WithProperty(PropertyColumn, col).
		WithProperty(PropertySource, p.lexer.RawBuffer())
}

// recoverFailure converts a parser abort back into an error.
func recoverFailure(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(compileFailure); ok {
		*err = f.err
		return
	}
	panic(r)
}
