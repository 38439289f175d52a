package vm

// Array is a variable-length indexable object. Indices seen from SOM code
// are 1-based; the Go accessors below are 0-based.
type Array struct {
	elements []Value
}

// NewArray creates an array of length n filled with nil.
func (u *Universe) NewArray(n int) *Array {
	a := &Array{elements: make([]Value, n)}
	for i := range a.elements {
		a.elements[i] = u.Nil
	}
	return a
}

// NewArrayFrom wraps a slice of values.
func NewArrayFrom(values []Value) *Array {
	return &Array{elements: values}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elements) }

// At returns the element at a zero-based index.
func (a *Array) At(i int) Value { return a.elements[i] }

// Put stores v at a zero-based index.
func (a *Array) Put(i int, v Value) { a.elements[i] = v }

// Elements returns the backing slice.
func (a *Array) Elements() []Value { return a.elements }
