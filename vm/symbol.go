package vm

import (
	"sort"
	"strings"
	"sync"
)

// Symbol is an interned selector or identifier. Two symbols with the same
// text obtained from one SymbolTable are the same pointer.
type Symbol struct {
	name    string
	numArgs int
}

// String returns the symbol text.
func (s *Symbol) String() string { return s.name }

// NumArgs returns the number of arguments a message with this selector
// carries, counting the receiver: 1 for unary, 2 for binary and
// colons+1 for keyword selectors.
func (s *Symbol) NumArgs() int { return s.numArgs }

// IsBinary reports whether the selector is made of operator characters only.
func (s *Symbol) IsBinary() bool { return isBinarySelector(s.name) }

// operatorChars are the characters binary selectors are built from.
const operatorChars = "~&|*/\\+=><,@%-"

// IsOperatorChar reports whether c may appear in a binary selector.
func IsOperatorChar(c byte) bool {
	return strings.IndexByte(operatorChars, c) >= 0
}

func isBinarySelector(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !IsOperatorChar(name[i]) {
			return false
		}
	}
	return true
}

func signatureArgCount(name string) int {
	if isBinarySelector(name) {
		return 2
	}
	return strings.Count(name, ":") + 1
}

// SymbolTable interns symbols by text.
// Class loading is single-writer; the lock only guards readers in the
// language server and evaluation service.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]*Symbol)}
}

// Intern returns the symbol for name, creating it on first use.
func (st *SymbolTable) Intern(name string) *Symbol {
	st.mu.RLock()
	if s, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return s
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.byName[name]; ok {
		return s
	}
	s := &Symbol{name: name, numArgs: signatureArgCount(name)}
	st.byName[name] = s
	return s
}

// Lookup returns the symbol for name without creating it.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byName[name]
	return s, ok
}

// Len returns the number of interned symbols.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byName)
}

// Names returns the text of every interned symbol, sorted.
func (st *SymbolTable) Names() []string {
	st.mu.RLock()
	names := make([]string, 0, len(st.byName))
	for name := range st.byName {
		names = append(names, name)
	}
	st.mu.RUnlock()
	sort.Strings(names)
	return names
}
