package compiler

import (
	"github.com/chazu/som/vm"
)

// ---------------------------------------------------------------------------
// ClassGen: per-class generation context
// ---------------------------------------------------------------------------

// ClassGen collects the fields and methods of a class definition. Field
// lists hold the inherited names first so a field's position in the list
// is its layout index.
type ClassGen struct {
	u         *vm.Universe
	name      *vm.Symbol
	superName *vm.Symbol
	classSide bool

	instanceFields      []*vm.Symbol
	superInstanceFields int
	instanceMethods     []vm.Invokable

	classFields      []*vm.Symbol
	superClassFields int
	classMethods     []vm.Invokable
}

// NewClassGen creates an empty class context.
func NewClassGen(u *vm.Universe) *ClassGen {
	return &ClassGen{u: u}
}

// Name returns the class name.
func (c *ClassGen) Name() *vm.Symbol { return c.name }

// SetName sets the class name.
func (c *ClassGen) SetName(name *vm.Symbol) { c.name = name }

// SuperName returns the superclass name.
func (c *ClassGen) SuperName() *vm.Symbol { return c.superName }

// SetSuperName sets the superclass name.
func (c *ClassGen) SetSuperName(name *vm.Symbol) { c.superName = name }

// SetFieldsOfSuper seeds both field lists with the superclass layout.
func (c *ClassGen) SetFieldsOfSuper(super *vm.Class) {
	c.instanceFields = append([]*vm.Symbol(nil), super.AllInstanceFields()...)
	c.superInstanceFields = len(c.instanceFields)
	c.classFields = append([]*vm.Symbol(nil), super.Class().AllInstanceFields()...)
	c.superClassFields = len(c.classFields)
}

// StartClassSide switches subsequent fields and methods to the class side.
func (c *ClassGen) StartClassSide() { c.classSide = true }

// AddField declares a field on the current side.
func (c *ClassGen) AddField(name *vm.Symbol) {
	if c.classSide {
		c.classFields = append(c.classFields, name)
	} else {
		c.instanceFields = append(c.instanceFields, name)
	}
}

// AddMethod adds an invokable to the current side.
func (c *ClassGen) AddMethod(inv vm.Invokable) {
	if c.classSide {
		c.classMethods = append(c.classMethods, inv)
	} else {
		c.instanceMethods = append(c.instanceMethods, inv)
	}
}

// FieldIndex returns the layout index of a field on the current side. A
// field redeclared by the class shadows the inherited one.
func (c *ClassGen) FieldIndex(name *vm.Symbol) (int, bool) {
	fields := c.instanceFields
	if c.classSide {
		fields = c.classFields
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i] == name {
			return i, true
		}
	}
	return 0, false
}

// InstanceFields returns the instance field layout, inherited names first.
func (c *ClassGen) InstanceFields() []*vm.Symbol { return c.instanceFields }

// ClassFields returns the class-side field layout, inherited names first.
func (c *ClassGen) ClassFields() []*vm.Symbol { return c.classFields }

// InstanceMethods returns the instance-side invokables.
func (c *ClassGen) InstanceMethods() []vm.Invokable { return c.instanceMethods }

// ClassMethods returns the class-side invokables.
func (c *ClassGen) ClassMethods() []vm.Invokable { return c.classMethods }

// Assemble builds a new class and its metaclass. The superclass is loaded
// through the universe; a nil superclass name makes a root class.
func (c *ClassGen) Assemble() (*vm.Class, error) {
	var super *vm.Class
	if c.superName.String() != "nil" {
		var err error
		if super, err = c.u.LoadClass(c.superName); err != nil {
			return nil, DefinitionError.Wrap(err, "was not able to load super class: %s", c.superName)
		}
	}

	meta := vm.NewClass(c.u.MetaclassClass)
	meta.SetName(c.u.SymbolFor(c.name.String() + " class"))
	meta.SetInstanceFields(c.ownClassFields())
	meta.SetInstanceInvokables(c.classMethods)
	if super != nil {
		meta.SetSuperclass(super.Class())
	} else {
		meta.SetSuperclass(c.u.ClassClass)
	}

	result := vm.NewClass(meta)
	result.SetName(c.name)
	result.SetSuperclass(super)
	result.SetInstanceFields(c.ownInstanceFields())
	result.SetInstanceInvokables(c.instanceMethods)
	return result, nil
}

// AssembleSystemClass fills a class the universe allocated during
// bootstrap. Its name and superclass links are already in place.
func (c *ClassGen) AssembleSystemClass(system *vm.Class) *vm.Class {
	system.SetInstanceFields(c.ownInstanceFields())
	system.SetInstanceInvokables(c.instanceMethods)
	system.Class().SetInstanceFields(c.ownClassFields())
	system.Class().SetInstanceInvokables(c.classMethods)
	return system
}

func (c *ClassGen) ownInstanceFields() []*vm.Symbol {
	return append([]*vm.Symbol(nil), c.instanceFields[c.superInstanceFields:]...)
}

func (c *ClassGen) ownClassFields() []*vm.Symbol {
	return append([]*vm.Symbol(nil), c.classFields[c.superClassFields:]...)
}
