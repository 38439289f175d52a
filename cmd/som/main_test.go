package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/server"
	"github.com/chazu/som/vm"
)

func runExample(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	u, err := compiler.NewUniverse(
		vm.WithClassPath(filepath.Join("..", "..", "examples")),
		vm.WithStdout(&out),
		vm.WithStderr(&out),
		vm.WithStackChecks(true),
	)
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	code, err := u.Run(args)
	if err != nil {
		t.Fatalf("Run(%v): %v", args, err)
	}
	if code != 0 {
		t.Fatalf("Run(%v) exit code = %d, output %q", args, code, out.String())
	}
	return out.String()
}

func TestExamples(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"Hello"}, "Hello, World!\n"},
		{[]string{"Hello", "a", "b"}, "Hello, a!\nHello, b!\n"},
		{[]string{"Fibonacci"}, "fib(10) = 55\n"},
		{[]string{"Fibonacci", "15"}, "fib(15) = 610\n"},
		{[]string{"Factorial"}, "15511210043330985984000000\n15511\n"},
	}

	for _, tc := range tests {
		t.Run(tc.args[0], func(t *testing.T) {
			if got := runExample(t, tc.args...); got != tc.want {
				t.Errorf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	if err := os.MkdirAll(lib, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := `[project]
name = "app"

[classpath]
dirs = ["src"]

[run]
entry = "Main"
args = ["x"]

[debug]
dump-bytecodes = true

[log]
verbosity = 2

[dependencies]
lib = { path = "lib" }
`
	if err := os.WriteFile(filepath.Join(dir, "som.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	chdir(t, sub)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.entry != "Main" || len(cfg.args) != 1 || cfg.args[0] != "x" {
		t.Errorf("entry = %q %v, want Main [x]", cfg.entry, cfg.args)
	}
	if !cfg.dumpBytecodes || cfg.verbosity != 2 {
		t.Errorf("dump = %v verbosity = %d, want true 2", cfg.dumpBytecodes, cfg.verbosity)
	}
	if len(cfg.classPath) != 2 || filepath.Base(cfg.classPath[0]) != "src" || filepath.Base(cfg.classPath[1]) != "lib" {
		t.Errorf("classPath = %v, want [.../src .../lib]", cfg.classPath)
	}
}

func TestLoadConfigWithoutManifest(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.classPath) != 1 || cfg.classPath[0] != "." {
		t.Errorf("classPath = %v, want [.]", cfg.classPath)
	}
}

func TestServeStopsWorkerOnFailure(t *testing.T) {
	u, err := compiler.NewUniverse(vm.WithStdout(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	srv := server.New(u)

	if code := serve(srv, "no-port"); code != 1 {
		t.Fatalf("serve exit code = %d, want 1", code)
	}

	req := httptest.NewRequest(http.MethodPost, server.EvaluateProcedure, strings.NewReader(`{"source":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp server.EvaluateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if resp.Success || !strings.Contains(resp.ErrorMessage, "stopped") {
		t.Errorf("response = %+v, want a stopped worker error", resp)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		t.Setenv("PWD", abs)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
