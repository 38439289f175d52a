package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "test-app"
version = "0.1.0"

[classpath]
dirs = ["src", "lib"]

[run]
entry = "Main"
args = ["one", "two"]

[debug]
dump-bytecodes = true

[log]
verbosity = 2

[dependencies]
helper = { path = "../helper" }
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if len(m.ClassPath.Dirs) != 2 {
		t.Errorf("classpath dirs count = %d, want 2", len(m.ClassPath.Dirs))
	}
	if m.Run.Entry != "Main" {
		t.Errorf("run entry = %q, want Main", m.Run.Entry)
	}
	if len(m.Run.Args) != 2 || m.Run.Args[1] != "two" {
		t.Errorf("run args = %v, want [one two]", m.Run.Args)
	}
	if !m.Debug.DumpBytecodes {
		t.Error("debug dump-bytecodes = false, want true")
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if dep, ok := m.Dependencies["helper"]; !ok || dep.Path != "../helper" {
		t.Errorf("helper dep = %v, want path ../helper", m.Dependencies["helper"])
	}
	if !filepath.IsAbs(m.Dir) {
		t.Errorf("Dir = %q, want an absolute path", m.Dir)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Default class path is the project root
	if len(m.ClassPath.Dirs) != 1 || m.ClassPath.Dirs[0] != "." {
		t.Errorf("default classpath dirs = %v, want [.]", m.ClassPath.Dirs)
	}
	if m.Log.Verbosity != 0 {
		t.Errorf("default verbosity = %d, want 0", m.Log.Verbosity)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of a directory without som.toml succeeded")
	}

	dir := t.TempDir()
	writeManifest(t, dir, "[project\nname = ")
	if _, err := Load(dir); err == nil {
		t.Error("Load of malformed som.toml succeeded")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no som.toml exists")
	}
}

func TestClassPathDirs(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		ClassPath: ClassPath{
			Dirs: []string{"src", ".", "/opt/som/lib"},
		},
	}

	paths := m.ClassPathDirs()
	want := []string{"/app/src", "/app", "/opt/som/lib"}
	if len(paths) != len(want) {
		t.Fatalf("ClassPathDirs() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
