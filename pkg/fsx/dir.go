package fsx

import (
	"os"
	"strings"

	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/pkg/pathops"
)

// Dir is a File that is expected to name a directory. Its existence
// predicate additionally requires the stat type to be a directory: a
// non-directory entry at the path reports nonexistence.
type Dir struct {
	File
}

// NewDir returns a Dir for path. No filesystem access happens yet.
func NewDir(path string) *Dir { return &Dir{File: File{path: path}} }

// Exists reports whether the path is accessible and names a directory.
func (d *Dir) Exists() bool {
	if !d.File.Exists() {
		return false
	}
	st, err := ReadStat(d.path)
	return err == nil && st.IsDir()
}

// Create makes the directory including all missing parents, applying perm
// to each created level. An existing directory is a no-op.
func (d *Dir) Create(perm os.FileMode) error {
	if d.Exists() {
		return nil
	}
	if err := os.MkdirAll(d.path, perm); err != nil {
		logger.Error("mkdir failed", logger.KeyPath, d.path, logger.KeyError, err)
		return err
	}
	d.invalidate()
	return nil
}

// Contents returns the immediate child names of the directory, without
// "." and "..". A missing or unreadable directory yields an empty list.
func (d *Dir) Contents() []string {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// Scan maps Contents into paths, absolute when requested, and keeps only
// entries accepted by filter (a nil filter keeps everything).
func (d *Dir) Scan(absolute bool, filter func(string) bool) []string {
	base := d.path
	if absolute {
		if abs, ok := pathops.Abs(d.path); ok {
			base = abs
		}
	}
	var paths []string
	for _, name := range d.Contents() {
		p := name
		if absolute {
			p = pathops.Join(base, name)
		}
		if filter == nil || filter(p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// ScanExtensions returns the directory entries whose extension matches
// one of exts, compared case-insensitively. Paths are returned absolute.
func (d *Dir) ScanExtensions(exts ...string) []string {
	folded := make(map[string]bool, len(exts))
	for _, e := range exts {
		folded[strings.ToLower(e)] = true
	}
	return d.Scan(true, func(p string) bool {
		return folded[strings.ToLower(pathops.Ext(p))]
	})
}
