package manifest

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolvePathDependencies(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	collections := filepath.Join(root, "collections")
	util := filepath.Join(root, "util")

	writeManifest(t, app, `
[classpath]
dirs = ["src"]

[dependencies]
collections = { path = "../collections" }
util = { path = "../util" }
`)
	writeManifest(t, collections, `
[classpath]
dirs = ["lib"]

[dependencies]
util = { path = "../util" }
`)
	writeManifest(t, util, `[project]
name = "util"
`)

	m, err := Load(app)
	if err != nil {
		t.Fatal(err)
	}
	deps, err := NewResolver(m).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// util is shared and comes before its dependent
	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "util,collections" {
		t.Errorf("resolve order = %s, want util,collections", got)
	}

	paths, err := m.FullClassPath()
	if err != nil {
		t.Fatalf("FullClassPath: %v", err)
	}
	want := []string{
		filepath.Join(app, "src"),
		util,
		filepath.Join(collections, "lib"),
	}
	if len(paths) != len(want) {
		t.Fatalf("FullClassPath() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestResolveDependencyWithoutManifest(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	writeManifest(t, app, `
[dependencies]
plain = { path = ".." }
`)

	m, err := Load(app)
	if err != nil {
		t.Fatal(err)
	}
	deps, err := NewResolver(m).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(deps) != 1 || deps[0].Manifest != nil {
		t.Fatalf("deps = %+v, want one dependency without a manifest", deps)
	}
	if dirs := deps[0].ClassPathDirs(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("ClassPathDirs() = %v, want [%s]", dirs, root)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		deps    string
		message string
	}{
		{"missing path", `broken = { }`, "has no path"},
		{"not found", `gone = { path = "../does-not-exist" }`, "not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "app")
			writeManifest(t, dir, "[dependencies]\n"+tc.deps+"\n")
			m, err := Load(dir)
			if err != nil {
				t.Fatal(err)
			}
			_, err = NewResolver(m).Resolve()
			if err == nil || !strings.Contains(err.Error(), tc.message) {
				t.Errorf("Resolve() err = %v, want it to contain %q", err, tc.message)
			}
		})
	}
}

func TestResolveCycle(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeManifest(t, a, "[dependencies]\nb = { path = \"../b\" }\n")
	writeManifest(t, b, "[dependencies]\na = { path = \"../a\" }\n")

	m, err := Load(a)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewResolver(m).Resolve(); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("Resolve() err = %v, want a cycle error", err)
	}
}
