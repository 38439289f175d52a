package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ResolvedDep represents a dependency that has been resolved to a local path.
type ResolvedDep struct {
	Name      string    // dependency name
	LocalPath string    // local filesystem path
	Manifest  *Manifest // the dependency's own manifest (may be nil)
}

// ClassPathDirs returns the directories the dependency contributes: those
// of its manifest, or its root when it has none.
func (d ResolvedDep) ClassPathDirs() []string {
	if d.Manifest != nil {
		return d.Manifest.ClassPathDirs()
	}
	return []string{d.LocalPath}
}

// Resolver manages dependency resolution.
type Resolver struct {
	manifest *Manifest
}

// NewResolver creates a new dependency resolver.
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{manifest: m}
}

// Resolve resolves all dependencies and returns them in load order
// (dependencies before dependents). A library reached twice is resolved
// once; a dependency cycle is an error.
func (r *Resolver) Resolve() ([]ResolvedDep, error) {
	resolved := make(map[string]*ResolvedDep)
	visiting := map[string]bool{r.manifest.Dir: true}
	return r.resolveAll(r.manifest, resolved, visiting)
}

// resolveAll resolves the dependencies of m recursively.
func (r *Resolver) resolveAll(m *Manifest, resolved map[string]*ResolvedDep, visiting map[string]bool) ([]ResolvedDep, error) {
	var order []ResolvedDep

	// map order is random; keep the class path stable
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rd, err := resolveOne(m, name, m.Dependencies[name])
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		if _, ok := resolved[rd.LocalPath]; ok {
			continue // already resolved
		}
		if visiting[rd.LocalPath] {
			return nil, fmt.Errorf("dependency cycle through %s at %s", name, rd.LocalPath)
		}

		// Check for transitive dependencies
		if rd.Manifest != nil && len(rd.Manifest.Dependencies) > 0 {
			visiting[rd.LocalPath] = true
			transitive, err := r.resolveAll(rd.Manifest, resolved, visiting)
			delete(visiting, rd.LocalPath)
			if err != nil {
				return nil, err
			}
			order = append(order, transitive...)
		}

		resolved[rd.LocalPath] = rd
		order = append(order, *rd)
	}

	return order, nil
}

// resolveOne resolves a single dependency relative to the manifest that
// declares it.
func resolveOne(m *Manifest, name string, dep Dependency) (*ResolvedDep, error) {
	if dep.Path == "" {
		return nil, fmt.Errorf("dependency %q has no path specified", name)
	}

	localPath := dep.Path
	if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(m.Dir, localPath)
	}

	localPath, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", dep.Path, err)
	}

	// Verify it exists
	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("local dependency %q not found at %s: %w", name, localPath, err)
	}

	var depManifest *Manifest
	if _, err := os.Stat(filepath.Join(localPath, FileName)); err == nil {
		if depManifest, err = Load(localPath); err != nil {
			return nil, err
		}
	}

	return &ResolvedDep{
		Name:      name,
		LocalPath: localPath,
		Manifest:  depManifest,
	}, nil
}

// FullClassPath returns the project's class path directories followed by
// those of every resolved dependency.
func (m *Manifest) FullClassPath() ([]string, error) {
	deps, err := NewResolver(m).Resolve()
	if err != nil {
		return nil, err
	}
	paths := m.ClassPathDirs()
	for _, d := range deps {
		paths = append(paths, d.ClassPathDirs()...)
	}
	return paths, nil
}
