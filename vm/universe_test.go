package vm_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/joomcode/errorx"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/vm"
)

func TestUniverseBootstrap(t *testing.T) {
	u, err := compiler.NewUniverse(vm.WithStdout(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}

	for _, name := range []string{"Object", "Class", "Metaclass", "Nil", "Array", "Integer", "Block", "True", "False", "System"} {
		g, ok := u.Global(u.SymbolFor(name))
		if !ok {
			t.Errorf("global %s missing", name)
			continue
		}
		if _, isClass := g.(*vm.Class); !isClass {
			t.Errorf("global %s = %T, want *vm.Class", name, g)
		}
	}

	if u.ClassOf(u.Nil) != u.NilClass {
		t.Error("nil is not an instance of Nil")
	}
	if u.ClassOf(u.True) != u.TrueClass {
		t.Error("true is not an instance of True")
	}

	// Metaclass class class == Metaclass
	if u.MetaclassClass.Class().Class() != u.MetaclassClass {
		t.Error("metaclass fixed point not tied")
	}
	// Object class superclass == Class
	if u.ObjectClass.Class().Superclass() != u.ClassClass {
		t.Error("Object class does not inherit from Class")
	}
	if u.IntegerClass.Class().Name().String() != "Integer class" {
		t.Errorf("Integer metaclass name = %s", u.IntegerClass.Class().Name())
	}
}

func TestUniverseWithoutCompiler(t *testing.T) {
	u := vm.NewUniverse()
	if err := u.Initialize(); !errorx.IsOfType(err, vm.BootstrapFailed) {
		t.Errorf("Initialize() err = %v, want BootstrapFailed", err)
	}
}

func TestUniverseClassPath(t *testing.T) {
	fsys := fstest.MapFS{
		"Hello.som": {Data: []byte(`Hello = ( run = ( ^'hi' ) ---- greeting = ( ^self new run ) )`)},
	}
	u, err := compiler.NewUniverse(vm.WithClassPathFS("app", fsys), vm.WithStdout(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}

	got, err := u.Interpret("Hello", "greeting")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if s, ok := got.(*vm.String); !ok || s.String() != "hi" {
		t.Errorf("Hello greeting = %v, want 'hi'", got)
	}

	if _, err := u.LoadClass(u.SymbolFor("Missing")); !errorx.IsOfType(err, vm.ClassNotFound) {
		t.Errorf("LoadClass(Missing) err = %v, want ClassNotFound", err)
	}
	if _, err := u.Interpret("Hello", "nothing"); !errorx.IsOfType(err, vm.LookupFailed) {
		t.Errorf("Interpret(nothing) err = %v, want LookupFailed", err)
	}
}

func TestUniverseClassFileNameMustMatch(t *testing.T) {
	fsys := fstest.MapFS{
		"Wrong.som": {Data: []byte(`Right = ( )`)},
	}
	u, err := compiler.NewUniverse(vm.WithClassPathFS("app", fsys))
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	if _, err := u.LoadClass(u.SymbolFor("Wrong")); !errorx.IsOfType(err, compiler.DefinitionError) {
		t.Errorf("err = %v, want DefinitionError", err)
	}
}

func TestUniversesAreIndependent(t *testing.T) {
	a, err := compiler.NewUniverse()
	if err != nil {
		t.Fatal(err)
	}
	b, err := compiler.NewUniverse()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.LoadClassFromSource(`Only = ( )`, "Only.som"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Global(b.SymbolFor("Only")); ok {
		t.Error("class defined in one universe is visible in another")
	}
	if a.SymbolFor("x") == b.SymbolFor("x") {
		t.Error("universes share a symbol table")
	}
}

func TestDisassemble(t *testing.T) {
	u, err := compiler.NewUniverse()
	if err != nil {
		t.Fatal(err)
	}
	c, err := u.LoadClassFromSource(`D = ( | x | foo = ( ^x + 1 ) bar = primitive )`, "D.som")
	if err != nil {
		t.Fatal(err)
	}

	out := vm.DisassembleString(c)
	for _, want := range []string{
		"D>>#foo = (",
		"PUSH_FIELD",
		"field: x",
		"(Integer) 1",
		"signature: (Symbol) +",
		"RETURN_LOCAL",
		"D>>#bar = <primitive>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestDumpBytecodesOnLoad(t *testing.T) {
	var out bytes.Buffer
	u, err := compiler.NewUniverse(vm.WithStdout(&out), vm.WithDumpBytecodes(true))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Object>>#") {
		t.Errorf("bytecode dump missing system classes")
	}
	out.Reset()
	if _, err := u.LoadClassFromSource(`E = ( foo = ( ^1 ) )`, "E.som"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "E>>#foo") {
		t.Errorf("dump = %q, want E>>#foo", out.String())
	}
}
