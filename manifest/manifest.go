// Package manifest handles som.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project configuration file.
const FileName = "som.toml"

// Manifest represents a som.toml project configuration.
type Manifest struct {
	Project      Project               `toml:"project"`
	ClassPath    ClassPath             `toml:"classpath"`
	Run          Run                   `toml:"run"`
	Debug        Debug                 `toml:"debug"`
	Log          Log                   `toml:"log"`
	Dependencies map[string]Dependency `toml:"dependencies"`

	// Dir is the directory containing the som.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ClassPath lists the directories searched for Name.som files, in order.
type ClassPath struct {
	Dirs []string `toml:"dirs"`
}

// Run configures the program started when no class is named on the
// command line.
type Run struct {
	Entry string   `toml:"entry"`
	Args  []string `toml:"args"`
}

// Debug configures diagnostic output.
type Debug struct {
	DumpBytecodes bool `toml:"dump-bytecodes"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Dependency is a local class library whose class path is appended to the
// project's.
type Dependency struct {
	Path string `toml:"path"`
}

// Load parses a som.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.ClassPath.Dirs) == 0 {
		m.ClassPath.Dirs = []string{"."}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a som.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ClassPathDirs returns absolute paths for the configured class path
// directories.
func (m *Manifest) ClassPathDirs() []string {
	var paths []string
	for _, d := range m.ClassPath.Dirs {
		if filepath.IsAbs(d) {
			paths = append(paths, d)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}
