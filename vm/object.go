package vm

// Object is a generic instance: a class pointer and a fixed-size field
// array whose layout is decided when the class is compiled.
type Object struct {
	class  *Class
	fields []Value
}

// NewInstance creates an instance of c with every field set to nil.
func (u *Universe) NewInstance(c *Class) *Object {
	o := &Object{class: c, fields: make([]Value, c.NumberOfInstanceFields())}
	for i := range o.fields {
		o.fields[i] = u.Nil
	}
	return o
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Field returns the field at a zero-based index.
func (o *Object) Field(index int) Value { return o.fields[index] }

// SetField stores v in the field at a zero-based index.
func (o *Object) SetField(index int, v Value) { o.fields[index] = v }

// NumberOfFields returns the size of the field array.
func (o *Object) NumberOfFields() int { return len(o.fields) }
