// Package corelib bundles the core class library loaded at bootstrap.
package corelib

import (
	"embed"
	"io/fs"
)

//go:embed Smalltalk/*.som
var files embed.FS

// FS holds the class files, one Name.som per class, at its root.
var FS fs.FS = mustSub(files, "Smalltalk")

// Names returns the class names available in FS.
func Names() []string {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if n := e.Name(); len(n) > 4 && n[len(n)-4:] == ".som" {
			names = append(names, n[:len(n)-4])
		}
	}
	return names
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
