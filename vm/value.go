package vm

// Value is anything the interpreter can hold in a frame slot, a field or an
// array element. The set of implementations is closed: *Object, *Array,
// *Class, *Symbol, *String, Integer, *BigInteger, Double, *Block, *Method and
// *Primitive. Use Universe.ClassOf to get the class of a value.
type Value interface {
	somValue()
}

func (*Object) somValue()     {}
func (*Array) somValue()      {}
func (*Class) somValue()      {}
func (*Symbol) somValue()     {}
func (*String) somValue()     {}
func (Integer) somValue()     {}
func (*BigInteger) somValue() {}
func (Double) somValue()      {}
func (*Block) somValue()      {}
func (*Method) somValue()     {}
func (*Primitive) somValue()  {}

// ClassOf returns the class of v.
func (u *Universe) ClassOf(v Value) *Class {
	switch x := v.(type) {
	case *Object:
		return x.class
	case *Class:
		return x.class
	case *Array:
		return u.ArrayClass
	case *Symbol:
		return u.SymbolClass
	case *String:
		return u.StringClass
	case Integer, *BigInteger:
		return u.IntegerClass
	case Double:
		return u.DoubleClass
	case *Block:
		return x.class
	case *Method:
		return u.MethodClass
	case *Primitive:
		return u.PrimitiveClass
	}
	return u.NilClass
}

// fieldHolder is implemented by values with named instance fields.
type fieldHolder interface {
	Field(index int) Value
	SetField(index int, v Value)
	NumberOfFields() int
}
