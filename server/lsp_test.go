package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/som/vm"
)

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple word", "Obj", protocol.Position{Line: 0, Character: 3}, "Obj"},
		{"mid line", "x := Tra", protocol.Position{Line: 0, Character: 8}, "Tra"},
		{"keyword part", "a at: 1 pu", protocol.Position{Line: 0, Character: 10}, "pu"},
		{"keyword with colon", "a at:", protocol.Position{Line: 0, Character: 5}, "at:"},
		{"empty at space", "foo ", protocol.Position{Line: 0, Character: 4}, ""},
		{"second line", "first\n  sec", protocol.Position{Line: 1, Character: 5}, "sec"},
		{"line out of range", "abc", protocol.Position{Line: 5, Character: 0}, ""},
		{"column past end", "abc", protocol.Position{Line: 0, Character: 99}, "abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractPrefix(tc.text, tc.pos)
			if got != tc.want {
				t.Errorf("extractPrefix(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
			}
		})
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"cursor at start", "Object new", protocol.Position{Line: 0, Character: 0}, "Object"},
		{"cursor mid word", "Object new", protocol.Position{Line: 0, Character: 3}, "Object"},
		{"second word", "Object new", protocol.Position{Line: 0, Character: 8}, "new"},
		{"keyword stops at colon", "x at: 1", protocol.Position{Line: 0, Character: 3}, "at"},
		{"between symbols", "a + b", protocol.Position{Line: 0, Character: 2}, ""},
		{"second line", "foo\nbar_baz2 x", protocol.Position{Line: 1, Character: 4}, "bar_baz2"},
		{"line out of range", "abc", protocol.Position{Line: 2, Character: 0}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractWord(tc.text, tc.pos)
			if got != tc.want {
				t.Errorf("extractWord(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
			}
		})
	}
}

func TestDiagnoseValidSource(t *testing.T) {
	u := newTestWorker(t).Universe()
	diags := diagnose(u, "Good.som", "Good = ( run = ( ^1 + 2 ) )")
	if diags == nil {
		t.Fatal("diagnose returned nil, want an empty list")
	}
	if len(diags) != 0 {
		t.Errorf("diagnose = %v, want no diagnostics", diags)
	}
	if _, ok := u.Global(u.SymbolFor("Good")); ok {
		t.Error("diagnose installed the class")
	}
}

func TestDiagnoseParseError(t *testing.T) {
	u := newTestWorker(t).Universe()
	diags := diagnose(u, "Bad.som", "Bad = (\n  run = ( ^ )\n)")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	if d.Range.Start.Line != 1 {
		t.Errorf("line = %d, want 1 (0-based)", d.Range.Start.Line)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Error("severity is not Error")
	}
	if d.Source == nil || *d.Source != lspName {
		t.Errorf("source = %v, want %s", d.Source, lspName)
	}
	if strings.HasPrefix(d.Message, "som.") {
		t.Errorf("message %q still carries the error namespace", d.Message)
	}
}

func TestComplete(t *testing.T) {
	u := newTestWorker(t).Universe()
	s := &LspServer{}

	items := s.complete(u, "Obj")
	var object *protocol.CompletionItem
	for i := range items {
		if items[i].Label == "Object" {
			object = &items[i]
		}
	}
	if object == nil {
		t.Fatalf("complete(Obj) = %v, want Object", items)
	}
	if object.Kind == nil || *object.Kind != protocol.CompletionItemKindClass {
		t.Error("Object is not completed as a class")
	}

	for _, item := range s.complete(u, "ifTr") {
		if !strings.HasPrefix(strings.ToLower(item.Label), "iftr") {
			t.Errorf("complete(ifTr) offered %q", item.Label)
		}
	}
	if len(s.complete(u, "")) > 100 {
		t.Error("complete returned more than 100 items")
	}
}

func TestCompleteSubclassDetail(t *testing.T) {
	u := newTestWorker(t).Universe()
	s := &LspServer{}

	for _, item := range s.complete(u, "True") {
		if item.Label != "True" {
			continue
		}
		if item.Detail == nil || *item.Detail != "class (< Boolean)" {
			t.Errorf("True detail = %v, want class (< Boolean)", item.Detail)
		}
		return
	}
	t.Error("complete(True) did not offer True")
}

func TestHoverClass(t *testing.T) {
	u := newTestWorker(t).Universe()
	s := &LspServer{}

	h := s.hover(u, "True")
	if h == nil {
		t.Fatal("hover(True) = nil")
	}
	text := h.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{"**True** < Boolean", "instance methods", "Object → Boolean → **True**"} {
		if !strings.Contains(text, want) {
			t.Errorf("hover(True) = %q, want it to contain %q", text, want)
		}
	}

	if s.hover(u, "Zork") != nil {
		t.Error("hover on an unknown class answered something")
	}
}

func TestHoverSelector(t *testing.T) {
	u := newTestWorker(t).Universe()
	s := &LspServer{}

	h := s.hover(u, "ifTrue")
	if h == nil {
		t.Fatal("hover(ifTrue) = nil")
	}
	text := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(text, "#ifTrue:") {
		t.Errorf("hover = %q, want #ifTrue:", text)
	}
	for _, want := range []string{"- True\n", "- False\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("hover = %q, want implementor %q", text, want)
		}
	}
}

func TestDefinitionAndReferences(t *testing.T) {
	w := newTestWorker(t)
	u := w.Universe()
	s := &LspServer{}

	if _, err := u.LoadClassFromSource(`Greeter = (
		greet = ( ^'hi' )
		run = ( ^[ self greet ] value )
		----
		make = ( ^self new greet )
	)`, "Greeter.som"); err != nil {
		t.Fatalf("LoadClassFromSource: %v", err)
	}

	defs := s.definition(u, "Greeter")
	if len(defs) != 1 || defs[0].URI != "som://class/Greeter" {
		t.Errorf("definition(Greeter) = %v", defs)
	}

	defs = s.definition(u, "greet")
	if len(defs) != 1 || defs[0].URI != "som://class/Greeter/greet" {
		t.Errorf("definition(greet) = %v", defs)
	}

	var uris []string
	for _, loc := range s.references(u, "greet") {
		uris = append(uris, string(loc.URI))
	}
	want := []string{"som://class/Greeter/run", "som://class/Greeter class/make"}
	if strings.Join(uris, ",") != strings.Join(want, ",") {
		t.Errorf("references(greet) = %v, want %v", uris, want)
	}
}

func TestMethodSendsIgnoresOtherSelectors(t *testing.T) {
	u := newTestWorker(t).Universe()
	c, err := u.LoadClassFromSource("Quiet = ( run = ( ^1 + 2 ) )", "Quiet.som")
	if err != nil {
		t.Fatal(err)
	}
	m, ok := c.LookupInvokable(u.SymbolFor("run")).(*vm.Method)
	if !ok {
		t.Fatal("run is not a method")
	}
	if !methodSends(m, u.SymbolFor("+")) {
		t.Error("run does not send +")
	}
	if methodSends(m, u.SymbolFor("println")) {
		t.Error("run sends println")
	}
}
