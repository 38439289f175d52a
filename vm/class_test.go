package vm

import (
	"testing"
)

// newClassChain builds Base |a b| <- Derived |c| without a universe.
func newClassChain(st *SymbolTable) (base, derived *Class) {
	base = NewClass(nil)
	base.SetName(st.Intern("Base"))
	base.SetInstanceFields([]*Symbol{st.Intern("a"), st.Intern("b")})

	derived = NewClass(nil)
	derived.SetName(st.Intern("Derived"))
	derived.SetSuperclass(base)
	derived.SetInstanceFields([]*Symbol{st.Intern("c")})
	return base, derived
}

func TestClassFieldLayout(t *testing.T) {
	st := NewSymbolTable()
	_, derived := newClassChain(st)

	if got := derived.NumberOfInstanceFields(); got != 3 {
		t.Errorf("NumberOfInstanceFields() = %d, want 3", got)
	}
	if got := derived.NumberOfSuperInstanceFields(); got != 2 {
		t.Errorf("NumberOfSuperInstanceFields() = %d, want 2", got)
	}

	all := derived.AllInstanceFields()
	want := []string{"a", "b", "c"}
	if len(all) != len(want) {
		t.Fatalf("AllInstanceFields() = %v, want %v", all, want)
	}
	for i, name := range want {
		if all[i].String() != name {
			t.Errorf("field[%d] = %s, want %s", i, all[i], name)
		}
		if got := derived.InstanceFieldName(i); got != all[i] {
			t.Errorf("InstanceFieldName(%d) = %v, want %s", i, got, name)
		}
	}
}

func TestClassFieldIndex(t *testing.T) {
	st := NewSymbolTable()
	base, derived := newClassChain(st)

	tests := []struct {
		class *Class
		name  string
		want  int
	}{
		{derived, "a", 0},
		{derived, "b", 1},
		{derived, "c", 2},
		{derived, "zork", -1},
		{base, "c", -1},
	}
	for _, tc := range tests {
		if got := tc.class.FieldIndex(st.Intern(tc.name)); got != tc.want {
			t.Errorf("%s FieldIndex(%s) = %d, want %d", tc.class.Name(), tc.name, got, tc.want)
		}
	}
}

func TestClassRedeclaredFieldShadows(t *testing.T) {
	st := NewSymbolTable()
	_, derived := newClassChain(st)
	derived.SetInstanceFields([]*Symbol{st.Intern("c"), st.Intern("a")})

	if got := derived.FieldIndex(st.Intern("a")); got != 3 {
		t.Errorf("FieldIndex(a) = %d, want 3", got)
	}
}

func TestClassLookupInvokable(t *testing.T) {
	st := NewSymbolTable()
	base, derived := newClassChain(st)
	foo := st.Intern("foo")
	bar := st.Intern("bar")

	baseFoo := NewEmptyPrimitive(foo)
	base.SetInstanceInvokables([]Invokable{baseFoo})
	if baseFoo.Holder() != base {
		t.Error("SetInstanceInvokables did not set the holder")
	}

	if got := derived.LookupInvokable(foo); got != baseFoo {
		t.Errorf("inherited lookup = %v, want Base>>foo", got)
	}
	if got := derived.LookupInvokable(bar); got != nil {
		t.Errorf("LookupInvokable(bar) = %v, want nil", got)
	}

	derivedFoo := NewEmptyPrimitive(foo)
	if derived.AddInstanceInvokable(derivedFoo) {
		t.Error("AddInstanceInvokable reported a replacement for a new selector")
	}
	if got := derived.LookupInvokable(foo); got != derivedFoo {
		t.Error("override not found after the memoized lookup")
	}

	replacement := NewEmptyPrimitive(foo)
	if !derived.AddInstanceInvokable(replacement) {
		t.Error("AddInstanceInvokable did not report the replacement")
	}
	if derived.NumberOfInstanceInvokables() != 1 {
		t.Errorf("NumberOfInstanceInvokables() = %d, want 1", derived.NumberOfInstanceInvokables())
	}
	if !derived.HasPrimitives() {
		t.Error("HasPrimitives() = false")
	}
}

func TestClassIsSubclassOf(t *testing.T) {
	st := NewSymbolTable()
	base, derived := newClassChain(st)
	if !derived.IsSubclassOf(base) || !derived.IsSubclassOf(derived) {
		t.Error("Derived should be a subclass of Base and of itself")
	}
	if base.IsSubclassOf(derived) {
		t.Error("Base should not be a subclass of Derived")
	}
}

func TestClassSideFieldsGrow(t *testing.T) {
	st := NewSymbolTable()
	meta := NewClass(nil)
	c := NewClass(meta)
	meta.SetInstanceFields([]*Symbol{st.Intern("count")})

	if c.NumberOfFields() != 1 {
		t.Fatalf("NumberOfFields() = %d, want 1", c.NumberOfFields())
	}
	if c.Field(0) != nil {
		t.Errorf("fresh class-side field = %v, want host nil", c.Field(0))
	}
	c.SetField(0, Integer(3))

	meta.SetInstanceFields([]*Symbol{st.Intern("count"), st.Intern("total")})
	if c.Field(0) != Integer(3) {
		t.Errorf("Field(0) = %v after growing, want 3", c.Field(0))
	}
	if c.Field(1) != nil {
		t.Errorf("Field(1) = %v, want host nil", c.Field(1))
	}
}
