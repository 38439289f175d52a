package vm

// Class describes the shape and behaviour of its instances. Every class is
// itself an instance of its metaclass; the metaclass's instance fields are
// the class-side fields, stored in fields below.
type Class struct {
	class      *Class // metaclass
	superclass *Class // nil for the root
	name       *Symbol

	instanceFields []*Symbol // declared by this class only
	invokables     []Invokable
	lookupCache    map[*Symbol]Invokable

	fields []Value // class-side field values
}

// NewClass allocates an empty class whose class is meta.
func NewClass(meta *Class) *Class {
	return &Class{class: meta, lookupCache: make(map[*Symbol]Invokable)}
}

// Class returns the metaclass.
func (c *Class) Class() *Class { return c.class }

// Superclass returns the superclass, or nil for the root class.
func (c *Class) Superclass() *Class { return c.superclass }

// SetSuperclass links c under super.
func (c *Class) SetSuperclass(super *Class) { c.superclass = super }

// Name returns the class name.
func (c *Class) Name() *Symbol { return c.name }

// SetName sets the class name.
func (c *Class) SetName(name *Symbol) { c.name = name }

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.superclass {
		if k == other {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Field layout
// ---------------------------------------------------------------------------

// InstanceFields returns the fields declared by this class, excluding the
// inherited ones.
func (c *Class) InstanceFields() []*Symbol { return c.instanceFields }

// SetInstanceFields replaces the fields declared by this class.
func (c *Class) SetInstanceFields(fields []*Symbol) { c.instanceFields = fields }

// NumberOfSuperInstanceFields returns the number of inherited fields.
func (c *Class) NumberOfSuperInstanceFields() int {
	if c.superclass == nil {
		return 0
	}
	return c.superclass.NumberOfInstanceFields()
}

// NumberOfInstanceFields returns the inherited plus declared field count.
func (c *Class) NumberOfInstanceFields() int {
	return len(c.instanceFields) + c.NumberOfSuperInstanceFields()
}

// AllInstanceFields returns every field name in layout order, superclass
// fields first.
func (c *Class) AllInstanceFields() []*Symbol {
	var all []*Symbol
	if c.superclass != nil {
		all = c.superclass.AllInstanceFields()
	}
	return append(all, c.instanceFields...)
}

// InstanceFieldName returns the name of the field at a layout index.
func (c *Class) InstanceFieldName(index int) *Symbol {
	if index >= c.NumberOfSuperInstanceFields() {
		index -= c.NumberOfSuperInstanceFields()
		if index < len(c.instanceFields) {
			return c.instanceFields[index]
		}
		return nil
	}
	return c.superclass.InstanceFieldName(index)
}

// FieldIndex returns the layout index of a field, or -1. Declared fields
// are searched before inherited ones so a redeclared name shadows.
func (c *Class) FieldIndex(name *Symbol) int {
	for i, f := range c.instanceFields {
		if f == name {
			return c.NumberOfSuperInstanceFields() + i
		}
	}
	if c.superclass != nil {
		return c.superclass.FieldIndex(name)
	}
	return -1
}

// Field returns the value of a class-side field.
func (c *Class) Field(index int) Value {
	c.ensureFields()
	return c.fields[index]
}

// SetField stores v in a class-side field.
func (c *Class) SetField(index int, v Value) {
	c.ensureFields()
	c.fields[index] = v
}

// NumberOfFields returns the number of class-side field slots.
func (c *Class) NumberOfFields() int {
	if c.class == nil {
		return 0
	}
	return c.class.NumberOfInstanceFields()
}

// ensureFields grows the class-side slots to the metaclass layout. New
// slots hold host nil, which the interpreter reads as the nil object.
func (c *Class) ensureFields() {
	if n := c.NumberOfFields(); len(c.fields) < n {
		c.fields = append(c.fields, make([]Value, n-len(c.fields))...)
	}
}

// ---------------------------------------------------------------------------
// Methods and lookup
// ---------------------------------------------------------------------------

// InstanceInvokables returns the methods and primitives defined by c.
func (c *Class) InstanceInvokables() []Invokable { return c.invokables }

// NumberOfInstanceInvokables returns the count of methods defined by c.
func (c *Class) NumberOfInstanceInvokables() int { return len(c.invokables) }

// SetInstanceInvokables replaces the defined methods, making c their holder.
func (c *Class) SetInstanceInvokables(invokables []Invokable) {
	c.invokables = invokables
	for _, inv := range invokables {
		inv.SetHolder(c)
	}
	c.flushCache()
}

// AddInstanceInvokable installs inv, replacing a method with the same
// signature. It reports whether a method was replaced.
func (c *Class) AddInstanceInvokable(inv Invokable) bool {
	inv.SetHolder(c)
	defer c.flushCache()
	for i, existing := range c.invokables {
		if existing.Signature() == inv.Signature() {
			c.invokables[i] = inv
			return true
		}
	}
	c.invokables = append(c.invokables, inv)
	return false
}

// LookupInvokable finds the method for a selector along the superclass
// chain, memoizing the answer (found or inherited) at c.
func (c *Class) LookupInvokable(selector *Symbol) Invokable {
	if inv, ok := c.lookupCache[selector]; ok {
		return inv
	}
	var found Invokable
	for _, inv := range c.invokables {
		if inv.Signature() == selector {
			found = inv
			break
		}
	}
	if found == nil && c.superclass != nil {
		found = c.superclass.LookupInvokable(selector)
	}
	if found != nil {
		if c.lookupCache == nil {
			c.lookupCache = make(map[*Symbol]Invokable)
		}
		c.lookupCache[selector] = found
	}
	return found
}

// HasPrimitives reports whether any method of c has a primitive body.
func (c *Class) HasPrimitives() bool {
	for _, inv := range c.invokables {
		if inv.IsPrimitive() {
			return true
		}
	}
	return false
}

// flushCache drops memoized lookups. Subclasses keep theirs, which is fine
// because methods are only installed while a class is being loaded.
func (c *Class) flushCache() {
	c.lookupCache = make(map[*Symbol]Invokable)
}
