package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/joomcode/errorx"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "som-lsp"

// LspServer bridges LSP editor features to a SOM universe via VMWorker.
type LspServer struct {
	worker *VMWorker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server wrapping the given universe.
func NewLSP(u *vm.Universe) *LspServer {
	worker := NewVMWorker(u)
	s := &LspServer{
		worker:  worker,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("SOM LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, pos)
	if prefix == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return s.complete(u, prefix)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return s.hover(u, word)
	})
	if err != nil {
		return nil, nil
	}
	if result == nil {
		return nil, nil
	}

	return result.(*protocol.Hover), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return s.definition(u, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return s.references(u, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result.([]protocol.Location), nil
}

// --- VM-backed logic (called on worker goroutine) ---

// classes returns every global bound to a class, sorted by name.
func classes(u *vm.Universe) []*vm.Class {
	var result []*vm.Class
	for _, name := range u.GlobalNames() {
		g, _ := u.Global(u.SymbolFor(name))
		if c, ok := g.(*vm.Class); ok && c.Name().String() == name {
			result = append(result, c)
		}
	}
	return result
}

// lookupClass returns the global class called name.
func lookupClass(u *vm.Universe, name string) *vm.Class {
	sym, ok := u.Symbols().Lookup(name)
	if !ok {
		return nil
	}
	g, ok := u.Global(sym)
	if !ok {
		return nil
	}
	c, _ := g.(*vm.Class)
	return c
}

// lookupSelector resolves word as a selector, also trying it as a
// one-part keyword.
func lookupSelector(u *vm.Universe, word string) *vm.Symbol {
	if sym, ok := u.Symbols().Lookup(word); ok {
		return sym
	}
	if sym, ok := u.Symbols().Lookup(word + ":"); ok {
		return sym
	}
	return nil
}

// definesLocally reports whether c itself defines selector.
func definesLocally(c *vm.Class, selector *vm.Symbol) bool {
	for _, inv := range c.InstanceInvokables() {
		if inv.Signature() == selector {
			return true
		}
	}
	return false
}

func (s *LspServer) complete(u *vm.Universe, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	// Globals, classes first
	for _, name := range u.GlobalNames() {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindVariable
		detail := "global"
		if cls := lookupClass(u, name); cls != nil {
			kind = protocol.CompletionItemKindClass
			detail = "class"
			if cls.Superclass() != nil {
				detail = fmt.Sprintf("class (< %s)", cls.Superclass().Name())
			}
		}
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	// Selectors
	for _, name := range u.Symbols().Names() {
		if name == "" || strings.HasPrefix(name, "$") || lookupClass(u, name) != nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			kind := protocol.CompletionItemKindFunction
			detail := "selector"
			nameCopy := name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &nameCopy,
			})
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func (s *LspServer) hover(u *vm.Universe, word string) *protocol.Hover {
	// Uppercase word → class lookup
	if len(word) > 0 && unicode.IsUpper(rune(word[0])) {
		cls := lookupClass(u, word)
		if cls == nil {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "**%s**", cls.Name())
		if cls.Superclass() != nil {
			fmt.Fprintf(&b, " < %s", cls.Superclass().Name())
		}
		b.WriteString("\n\n")

		if fields := cls.AllInstanceFields(); len(fields) > 0 {
			fmt.Fprintf(&b, "Instance fields: `%s`\n\n", joinSymbols(fields))
		}
		if fields := cls.Class().InstanceFields(); len(fields) > 0 {
			fmt.Fprintf(&b, "Class fields: `%s`\n\n", joinSymbols(fields))
		}

		fmt.Fprintf(&b, "%d instance methods, %d class methods",
			cls.NumberOfInstanceInvokables(), cls.Class().NumberOfInstanceInvokables())

		// Show hierarchy
		var supers []string
		for sup := cls.Superclass(); sup != nil; sup = sup.Superclass() {
			supers = append([]string{sup.Name().String()}, supers...)
		}
		if len(supers) > 0 {
			b.WriteString("\n\n**Hierarchy:** ")
			b.WriteString(strings.Join(supers, " → "))
			fmt.Fprintf(&b, " → **%s**", cls.Name())
		}

		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: b.String(),
			},
		}
	}

	// Lowercase or keyword → selector lookup (find implementors)
	selector := lookupSelector(u, word)
	if selector == nil {
		return nil
	}

	var implementors []string
	for _, cls := range classes(u) {
		if definesLocally(cls, selector) {
			implementors = append(implementors, cls.Name().String())
		}
		if definesLocally(cls.Class(), selector) {
			implementors = append(implementors, cls.Name().String()+" class")
		}
	}
	sort.Strings(implementors)

	if len(implementors) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**#%s**\n\n", selector)
	fmt.Fprintf(&b, "Implemented by %d classes:\n", len(implementors))
	for _, name := range implementors {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func joinSymbols(syms []*vm.Symbol) string {
	names := make([]string, len(syms))
	for i, sym := range syms {
		names[i] = sym.String()
	}
	return strings.Join(names, " ")
}

// classLocation is a virtual location naming a class or one of its methods.
func classLocation(path string) protocol.Location {
	return protocol.Location{
		URI: protocol.DocumentUri("som://class/" + path),
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
	}
}

func (s *LspServer) definition(u *vm.Universe, word string) []protocol.Location {
	// For class names, return a virtual URI
	if len(word) > 0 && unicode.IsUpper(rune(word[0])) {
		cls := lookupClass(u, word)
		if cls == nil {
			return nil
		}
		return []protocol.Location{classLocation(cls.Name().String())}
	}

	// For selectors, find implementors
	selector := lookupSelector(u, word)
	if selector == nil {
		return nil
	}

	var locations []protocol.Location
	for _, cls := range classes(u) {
		if definesLocally(cls, selector) {
			locations = append(locations, classLocation(fmt.Sprintf("%s/%s", cls.Name(), selector)))
		}
		if definesLocally(cls.Class(), selector) {
			locations = append(locations, classLocation(fmt.Sprintf("%s class/%s", cls.Name(), selector)))
		}
	}

	return locations
}

func (s *LspServer) references(u *vm.Universe, word string) []protocol.Location {
	selector := lookupSelector(u, word)
	if selector == nil {
		return nil
	}

	var locations []protocol.Location
	for _, cls := range classes(u) {
		for _, side := range []*vm.Class{cls, cls.Class()} {
			for _, inv := range side.InstanceInvokables() {
				m, ok := inv.(*vm.Method)
				if !ok || !methodSends(m, selector) {
					continue
				}
				locations = append(locations, classLocation(fmt.Sprintf("%s/%s", side.Name(), m.Signature())))
			}
		}
	}

	return locations
}

// methodSends reports whether m, or a block inside it, sends selector.
func methodSends(m *vm.Method, selector *vm.Symbol) bool {
	r := vm.NewBytecodeReader(m.Bytecodes())
	for r.HasMore() {
		op, operands := r.Next()
		if !op.IsSend() || len(operands) == 0 || int(operands[0]) >= len(m.Literals()) {
			continue
		}
		if m.Literal(int(operands[0])) == vm.Value(selector) {
			return true
		}
	}
	for _, lit := range m.Literals() {
		if block, ok := lit.(*vm.Method); ok && methodSends(block, selector) {
			return true
		}
	}
	return false
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return diagnose(u, string(uri), text)
	})
	if err != nil {
		return
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: result.([]protocol.Diagnostic),
	})
}

// diagnose compiles text without installing it and converts the first
// compile error into a diagnostic. Lines and columns are 1-based in
// compile errors and 0-based in LSP.
func diagnose(u *vm.Universe, filename, text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	err := compiler.Check(u, text, filename)
	if err == nil {
		return diagnostics
	}

	var start protocol.Position
	message := err.Error()
	if pos, ok := compiler.ErrorPosition(err); ok {
		if pos.Line > 0 {
			start.Line = protocol.UInteger(pos.Line - 1)
		}
		if pos.Column > 0 {
			start.Character = protocol.UInteger(pos.Column - 1)
		}
		message = errorMessage(err)
	}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	return append(diagnostics, protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: start},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	})
}

// errorMessage strips the namespace prefix errorx puts in front of messages.
func errorMessage(err error) string {
	if e := errorx.Cast(err); e != nil {
		if cause := e.Cause(); cause != nil {
			return e.Message() + ": " + errorMessage(cause)
		}
		return e.Message()
	}
	return err.Error()
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == ':' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			start--
		} else {
			break
		}
	}

	// Find end
	end := col
	for end < len(line) {
		ch := rune(line[end])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			end++
		} else {
			break
		}
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
