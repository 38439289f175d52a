package vm

import (
	"testing"
)

func newCacheFixture() (*SymbolTable, []*Class, []Invokable) {
	st := NewSymbolTable()
	classes := make([]*Class, 3)
	invokables := make([]Invokable, 3)
	for i := range classes {
		classes[i] = NewClass(nil)
		invokables[i] = NewEmptyPrimitive(st.Intern("foo"))
	}
	return st, classes, invokables
}

func TestInlineCacheEmpty(t *testing.T) {
	_, classes, _ := newCacheFixture()
	ic := NewInlineCache(4)

	if inv := ic.Lookup(0, classes[0]); inv != nil {
		t.Error("expected nil from empty cache")
	}
	if ic.Misses != 1 {
		t.Errorf("Misses = %d, want 1", ic.Misses)
	}
}

func TestInlineCacheFillsBothSlots(t *testing.T) {
	_, classes, invs := newCacheFixture()
	ic := NewInlineCache(4)

	ic.Update(0, classes[0], invs[0])
	if c, inv := ic.Slot(0, false); c != classes[0] || inv != invs[0] {
		t.Error("first resolution not in slot 1")
	}
	if c, _ := ic.Slot(0, true); c != nil {
		t.Error("slot 2 filled by the first resolution")
	}

	ic.Update(0, classes[1], invs[1])
	if c, inv := ic.Slot(0, true); c != classes[1] || inv != invs[1] {
		t.Error("second resolution not in slot 2")
	}

	if got := ic.Lookup(0, classes[0]); got != invs[0] {
		t.Error("expected a hit in slot 1")
	}
	if got := ic.Lookup(0, classes[1]); got != invs[1] {
		t.Error("expected a hit in slot 2")
	}
	if ic.Hits != 2 {
		t.Errorf("Hits = %d, want 2", ic.Hits)
	}
}

func TestInlineCacheThirdClassEvictsSlotOne(t *testing.T) {
	_, classes, invs := newCacheFixture()
	ic := NewInlineCache(4)

	ic.Update(0, classes[0], invs[0])
	ic.Update(0, classes[1], invs[1])
	ic.Update(0, classes[2], invs[2])

	if c, inv := ic.Slot(0, false); c != classes[2] || inv != invs[2] {
		t.Error("third resolution did not replace slot 1")
	}
	if c, _ := ic.Slot(0, true); c != classes[1] {
		t.Error("slot 2 was evicted")
	}
	if got := ic.Lookup(0, classes[0]); got != nil {
		t.Error("evicted class still hits")
	}
}

func TestInlineCacheIgnoresFailedLookups(t *testing.T) {
	_, classes, _ := newCacheFixture()
	ic := NewInlineCache(4)

	ic.Update(0, classes[0], nil)
	if c, _ := ic.Slot(0, false); c != nil {
		t.Error("failed lookup was cached")
	}
}

func TestInlineCacheSitesAreIndependent(t *testing.T) {
	_, classes, invs := newCacheFixture()
	ic := NewInlineCache(6)

	ic.Update(0, classes[0], invs[0])
	ic.Update(2, classes[1], invs[1])

	if got := ic.Lookup(2, classes[0]); got != nil {
		t.Error("site 2 answered the resolution of site 0")
	}
	if got := ic.Lookup(2, classes[1]); got != invs[1] {
		t.Error("expected a hit at site 2")
	}
}

func TestInlineCacheHitRateAndReset(t *testing.T) {
	_, classes, invs := newCacheFixture()
	ic := NewInlineCache(4)
	if ic.HitRate() != 0 {
		t.Errorf("HitRate() = %v on an unused cache, want 0", ic.HitRate())
	}

	ic.Update(0, classes[0], invs[0])
	ic.Lookup(0, classes[0])
	ic.Lookup(0, classes[1])
	if got := ic.HitRate(); got != 50 {
		t.Errorf("HitRate() = %v, want 50", got)
	}

	ic.Reset()
	if ic.Hits != 0 || ic.Misses != 0 {
		t.Error("Reset did not clear statistics")
	}
	if c, _ := ic.Slot(0, false); c != nil {
		t.Error("Reset did not clear slots")
	}
}
