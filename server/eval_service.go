package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/vm"
)

// Procedure paths of the evaluation service.
const (
	EvaluationServiceName       = "som.v1.EvaluationService"
	EvaluateProcedure           = "/" + EvaluationServiceName + "/Evaluate"
	LoadClassProcedure          = "/" + EvaluationServiceName + "/LoadClass"
	DisassembleProcedure        = "/" + EvaluationServiceName + "/Disassemble"
	evaluationServicePathPrefix = "/" + EvaluationServiceName + "/"
)

// EvaluateRequest carries one shell statement.
type EvaluateRequest struct {
	Source string `json:"source"`
}

// EvaluateResponse reports the value of a statement and what it printed.
type EvaluateResponse struct {
	Success      bool   `json:"success"`
	Result       string `json:"result,omitempty"`
	ClassName    string `json:"className,omitempty"`
	Output       string `json:"output,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
}

// LoadClassRequest carries the source of a class definition.
type LoadClassRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
}

// LoadClassResponse reports the installed class or the compile error.
type LoadClassResponse struct {
	Success      bool   `json:"success"`
	ClassName    string `json:"className,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
}

// DisassembleRequest names a global class.
type DisassembleRequest struct {
	ClassName string `json:"className"`
}

// DisassembleResponse holds the dump of a class and its metaclass.
type DisassembleResponse struct {
	Text string `json:"text"`
}

// EvalService implements the EvaluationService Connect handler.
type EvalService struct {
	worker *VMWorker
	shell  *vm.Shell
}

// NewEvalService creates an EvalService. Statements share one shell, so
// "it" carries over between requests.
func NewEvalService(worker *VMWorker) *EvalService {
	return &EvalService{
		worker: worker,
		shell:  vm.NewShell(worker.Universe()),
	}
}

// Evaluate compiles and executes a statement.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[EvaluateRequest],
) (*connect.Response[EvaluateResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		return s.evaluate(u, source)
	})
	if err != nil {
		return connect.NewResponse(&EvaluateResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		}), nil
	}

	return connect.NewResponse(result.(*EvaluateResponse)), nil
}

// LoadClass compiles a class definition and installs it as a global.
func (s *EvalService) LoadClass(
	ctx context.Context,
	req *connect.Request[LoadClassRequest],
) (*connect.Response[LoadClassResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}
	filename := req.Msg.Filename
	if filename == "" {
		filename = "request"
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		c, loadErr := u.LoadClassFromSource(source, filename)
		if loadErr != nil {
			resp := &LoadClassResponse{ErrorMessage: compiler.Describe(loadErr)}
			if pos, ok := compiler.ErrorPosition(loadErr); ok {
				resp.Line, resp.Column = pos.Line, pos.Column
			}
			return resp
		}
		return &LoadClassResponse{Success: true, ClassName: c.Name().String()}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(result.(*LoadClassResponse)), nil
}

// Disassemble dumps the bytecodes of a global class.
func (s *EvalService) Disassemble(
	ctx context.Context,
	req *connect.Request[DisassembleRequest],
) (*connect.Response[DisassembleResponse], error) {
	name := req.Msg.ClassName
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("className is required"))
	}

	result, err := s.worker.Do(func(u *vm.Universe) interface{} {
		g, ok := u.Global(u.SymbolFor(name))
		if !ok {
			return nil
		}
		c, ok := g.(*vm.Class)
		if !ok {
			return nil
		}
		return vm.DisassembleString(c.Class()) + vm.DisassembleString(c)
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if result == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("class %q not found", name))
	}

	return connect.NewResponse(&DisassembleResponse{Text: result.(string)}), nil
}

// evaluate runs source through the shell with the universe's output
// captured, returning an EvaluateResponse.
func (s *EvalService) evaluate(u *vm.Universe, source string) *EvaluateResponse {
	var out bytes.Buffer
	stdout, stderr := u.Stdout, u.Stderr
	u.Stdout, u.Stderr = &out, &out
	defer func() { u.Stdout, u.Stderr = stdout, stderr }()

	value, err := s.shell.Eval(source)
	if err != nil {
		resp := &EvaluateResponse{
			Output:       out.String(),
			ErrorMessage: compiler.Describe(err),
		}
		if pos, ok := compiler.ErrorPosition(err); ok {
			resp.Line, resp.Column = pos.Line, pos.Column
		}
		return resp
	}

	return &EvaluateResponse{
		Success:   true,
		Result:    printString(u, value),
		ClassName: u.ClassOf(value).Name().String(),
		Output:    out.String(),
	}
}

// printString asks the object for its printString, falling back to the
// class name when the send fails.
func printString(u *vm.Universe, v vm.Value) string {
	s, err := u.Execute(v, "printString")
	if err == nil {
		if str, ok := s.(*vm.String); ok {
			return str.String()
		}
	}
	return "a " + u.ClassOf(v).Name().String()
}

// Handler returns the HTTP path prefix and handler serving the three
// procedures.
func (s *EvalService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, s.Evaluate, opts...))
	mux.Handle(LoadClassProcedure, connect.NewUnaryHandler(LoadClassProcedure, s.LoadClass, opts...))
	mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(DisassembleProcedure, s.Disassemble, opts...))
	return evaluationServicePathPrefix, mux
}
