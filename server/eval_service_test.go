package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
)

// ---------------------------------------------------------------------------
// Evaluate
// ---------------------------------------------------------------------------

func TestEvaluate(t *testing.T) {
	tests := []struct {
		source    string
		result    string
		className string
	}{
		{"42", "42", "Integer"},
		{"3 + 4", "7", "Integer"},
		{"'hello'", "'hello'", "String"},
		{"true", "true", "True"},
		{"#(1 2)", "#(1 2)", "Array"},
		{"1.5 + 1", "2.5", "Double"},
	}

	for _, tc := range tests {
		t.Run(tc.source, func(t *testing.T) {
			svc := NewEvalService(newTestWorker(t))
			resp, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: tc.source}))
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if !resp.Msg.Success {
				t.Fatalf("Evaluate was not successful: %s", resp.Msg.ErrorMessage)
			}
			if resp.Msg.Result != tc.result {
				t.Errorf("Evaluate result = %q, want %q", resp.Msg.Result, tc.result)
			}
			if resp.Msg.ClassName != tc.className {
				t.Errorf("ClassName = %q, want %q", resp.Msg.ClassName, tc.className)
			}
		})
	}
}

func TestEvaluate_CarriesIt(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	if _, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "20"})); err != nil {
		t.Fatal(err)
	}
	resp, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "it + 1"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Msg.Result != "21" {
		t.Errorf("it + 1 = %q, want 21", resp.Msg.Result)
	}
}

func TestEvaluate_CapturesOutput(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	resp, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "'side effect' println"}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Msg.Output, "side effect\n") {
		t.Errorf("Output = %q, want it to contain the printed line", resp.Msg.Output)
	}
}

func TestEvaluate_ParseError(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	resp, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "3 +"}))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if resp.Msg.Success {
		t.Fatal("Evaluate of a bad statement succeeded")
	}
	if resp.Msg.ErrorMessage == "" || resp.Msg.Line != 1 {
		t.Errorf("error = %q at line %d, want a message at line 1", resp.Msg.ErrorMessage, resp.Msg.Line)
	}
}

func TestEvaluate_RuntimeError(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	resp, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "1 / 0"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Msg.Success {
		t.Fatal("division by zero succeeded")
	}
	if !strings.Contains(resp.Msg.ErrorMessage, "division by zero") {
		t.Errorf("ErrorMessage = %q, want division by zero", resp.Msg.ErrorMessage)
	}
}

func TestEvaluate_EmptySource(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	_, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}

// ---------------------------------------------------------------------------
// LoadClass and Disassemble
// ---------------------------------------------------------------------------

func TestLoadClass(t *testing.T) {
	w := newTestWorker(t)
	svc := NewEvalService(w)

	resp, err := svc.LoadClass(bg(), connectReq(&LoadClassRequest{
		Source: "Point = ( | x y | x = ( ^x ) x: v = ( x := v ) )",
	}))
	if err != nil {
		t.Fatalf("LoadClass returned error: %v", err)
	}
	if !resp.Msg.Success || resp.Msg.ClassName != "Point" {
		t.Fatalf("LoadClass = %+v, want Point", resp.Msg)
	}

	eval, err := svc.Evaluate(bg(), connectReq(&EvaluateRequest{Source: "(Point new x: 5) x"}))
	if err != nil {
		t.Fatal(err)
	}
	if eval.Msg.Result != "5" {
		t.Errorf("(Point new x: 5) x = %q (%s), want 5", eval.Msg.Result, eval.Msg.ErrorMessage)
	}
}

func TestLoadClass_Error(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	resp, err := svc.LoadClass(bg(), connectReq(&LoadClassRequest{
		Source:   "Broken = (\n  foo = ( ^ )\n)",
		Filename: "Broken.som",
	}))
	if err != nil {
		t.Fatalf("LoadClass returned error: %v", err)
	}
	if resp.Msg.Success {
		t.Fatal("LoadClass of broken source succeeded")
	}
	if resp.Msg.Line != 2 {
		t.Errorf("Line = %d, want 2", resp.Msg.Line)
	}
	if !strings.HasPrefix(resp.Msg.ErrorMessage, "Broken.som:2:") {
		t.Errorf("ErrorMessage = %q, want a Broken.som:2: prefix", resp.Msg.ErrorMessage)
	}
}

func TestDisassemble(t *testing.T) {
	svc := NewEvalService(newTestWorker(t))

	resp, err := svc.Disassemble(bg(), connectReq(&DisassembleRequest{ClassName: "True"}))
	if err != nil {
		t.Fatalf("Disassemble returned error: %v", err)
	}
	if !strings.Contains(resp.Msg.Text, "True>>#") {
		t.Errorf("Text = %q, want True methods", resp.Msg.Text)
	}

	_, err = svc.Disassemble(bg(), connectReq(&DisassembleRequest{ClassName: "Zork"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("code = %v, want NotFound", connect.CodeOf(err))
	}
}

// ---------------------------------------------------------------------------
// Over HTTP
// ---------------------------------------------------------------------------

func TestServerOverHTTP(t *testing.T) {
	w := newTestWorker(t)
	s := New(w.Universe())
	t.Cleanup(s.Stop)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := connect.NewClient[EvaluateRequest, EvaluateResponse](
		srv.Client(),
		srv.URL+EvaluateProcedure,
		connect.WithCodec(jsonCodec{}),
	)
	resp, err := client.CallUnary(bg(), connectReq(&EvaluateRequest{Source: "6 * 7"}))
	if err != nil {
		t.Fatalf("CallUnary: %v", err)
	}
	if resp.Msg.Result != "42" {
		t.Errorf("result = %q, want 42", resp.Msg.Result)
	}
}

func TestServerRejectsEmptySourceOverHTTP(t *testing.T) {
	s := New(newTestWorker(t).Universe())
	t.Cleanup(s.Stop)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := connect.NewClient[EvaluateRequest, EvaluateResponse](
		srv.Client(),
		srv.URL+EvaluateProcedure,
		connect.WithCodec(jsonCodec{}),
	)
	_, err := client.CallUnary(bg(), connectReq(&EvaluateRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}
