package vm

// Inline Caching for Message Sends
//
// Each compiled method carries a cache indexed by bytecode offset. A send
// instruction at offset i uses two slots:
// - slot 1 at index i holds the last resolved (class, invokable)
// - slot 2 at index i+1, the operand byte of the send which no other
//   instruction can claim
//
// A miss fills slot 1 if it is empty, then slot 2 if that is empty, and
// otherwise overwrites slot 1. Slot 2 is never evicted once filled.

// InlineCache holds the per-send-site resolutions of one method.
type InlineCache struct {
	classes    []*Class
	invokables []Invokable

	// Statistics for profiling
	Hits   uint64
	Misses uint64
}

// NewInlineCache creates a cache for a method with n bytecodes.
func NewInlineCache(n int) InlineCache {
	return InlineCache{
		classes:    make([]*Class, n),
		invokables: make([]Invokable, n),
	}
}

// Lookup returns the cached invokable for a receiver class at a send site,
// or nil on a miss.
func (ic *InlineCache) Lookup(bcIndex int, class *Class) Invokable {
	if bcIndex < len(ic.classes) && ic.classes[bcIndex] == class && class != nil {
		ic.Hits++
		return ic.invokables[bcIndex]
	}
	if second := bcIndex + 1; second < len(ic.classes) && ic.classes[second] == class && class != nil {
		ic.Hits++
		return ic.invokables[second]
	}
	ic.Misses++
	return nil
}

// Update records a resolution after a miss. Failed lookups are not cached.
func (ic *InlineCache) Update(bcIndex int, class *Class, inv Invokable) {
	if inv == nil || bcIndex+1 >= len(ic.classes) {
		return
	}
	switch {
	case ic.classes[bcIndex] == nil:
		ic.classes[bcIndex], ic.invokables[bcIndex] = class, inv
	case ic.classes[bcIndex+1] == nil:
		ic.classes[bcIndex+1], ic.invokables[bcIndex+1] = class, inv
	default:
		ic.classes[bcIndex], ic.invokables[bcIndex] = class, inv
	}
}

// Slot returns the class and invokable cached in slot 1 (second false) or
// slot 2 (second true) of a send site.
func (ic *InlineCache) Slot(bcIndex int, second bool) (*Class, Invokable) {
	if second {
		bcIndex++
	}
	if bcIndex >= len(ic.classes) {
		return nil, nil
	}
	return ic.classes[bcIndex], ic.invokables[bcIndex]
}

// HitRate returns the cache hit rate as a percentage.
func (ic *InlineCache) HitRate() float64 {
	total := ic.Hits + ic.Misses
	if total == 0 {
		return 0
	}
	return float64(ic.Hits) / float64(total) * 100
}

// Reset clears every slot and the statistics.
func (ic *InlineCache) Reset() {
	for i := range ic.classes {
		ic.classes[i] = nil
		ic.invokables[i] = nil
	}
	ic.Hits = 0
	ic.Misses = 0
}
