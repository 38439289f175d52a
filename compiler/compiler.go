// Package compiler turns SOM class definitions into classes of a
// vm.Universe. Parsing and code generation happen in a single pass.
package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/som/vm"
)

var log = commonlog.GetLogger("som.compiler")

// CompileClass parses source and assembles the class it defines. When
// className is not empty the definition must carry that name. When
// systemClass is not nil the definition fills that bootstrap class.
func CompileClass(u *vm.Universe, source, filename, className string, systemClass *vm.Class) (*vm.Class, error) {
	cgen, err := NewStringParser(u, source, filename).ClassDef()
	if err != nil {
		return nil, err
	}
	if className != "" && cgen.Name().String() != className {
		return nil, DefinitionError.New("file name %s does not match class name (%s) in it", filename, cgen.Name()).
			WithProperty(PropertyFile, filename).
			WithProperty(PropertyLine, 1).
			WithProperty(PropertyColumn, 1)
	}
	if systemClass != nil {
		log.Debugf("compiled system class %s < %s from %s", cgen.Name(), cgen.SuperName(), filename)
		return cgen.AssembleSystemClass(systemClass), nil
	}
	log.Debugf("compiled class %s < %s from %s", cgen.Name(), cgen.SuperName(), filename)
	return cgen.Assemble()
}

// Check parses source without installing anything and answers the first
// compile error. Superclasses are still loaded to resolve field names.
func Check(u *vm.Universe, source, filename string) error {
	_, err := NewStringParser(u, source, filename).ClassDef()
	return err
}

// NewUniverse creates a universe that compiles with CompileClass and
// bootstraps it.
func NewUniverse(opts ...vm.Option) (*vm.Universe, error) {
	u := vm.NewUniverse(opts...)
	u.UseCompiler(CompileClass)
	if err := u.Initialize(); err != nil {
		return nil, err
	}
	return u, nil
}
