// Package pathops provides path-string helpers with traditional Unix
// semantics: basename/dirname splitting, extension handling, path joining
// and normalization. Unless noted otherwise the functions are pure string
// transformations and never touch the filesystem.
package pathops

import (
	"os"
	"path/filepath"
	"strings"
)

// Base returns the trailing component of path.
//
// Base("/usr/xxx") == "xxx", Base("xxx") == "xxx", Base("/") == "/".
func Base(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	if i == 0 && len(path) == 1 {
		return path
	}
	return path[i+1:]
}

// Dir returns everything before the trailing component of path.
// A path without a separator yields ".", a path whose only separator is
// the leading slash yields "/.".
func Dir(path string) string {
	i := strings.LastIndexByte(path, '/')
	switch {
	case i < 0:
		return "."
	case i == 0:
		return "/."
	default:
		return path[:i]
	}
}

// extIndex returns the index of the extension dot of path, or -1 when the
// basename has no extension. A basename consisting of a leading dot only
// (".bashrc") does not count as having an extension.
func extIndex(path string) int {
	dot := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexByte(path, '/')
	if dot <= slash+1 {
		return -1
	}
	if dot == len(path)-1 {
		return -1
	}
	return dot
}

// Ext returns the final extension of path without the separating dot,
// or "" when the basename has no extension.
func Ext(path string) string {
	i := extIndex(path)
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

// HasExt reports whether the basename of path carries an extension.
func HasExt(path string) bool { return extIndex(path) >= 0 }

// Pref returns the complete path with the final extension removed.
func Pref(path string) string {
	i := extIndex(path)
	if i < 0 {
		return path
	}
	return path[:i]
}

// Prog returns the basename of path with the final extension removed.
func Prog(path string) string { return Pref(Base(path)) }

// ReplaceExt replaces an optional extension of path by ext.
//
// ReplaceExt("/usr/local/test.old", "new") == "/usr/local/test.new",
// the same result as for "/usr/local/test".
func ReplaceExt(path, ext string) string {
	return Pref(path) + "." + ext
}

// Join constructs a pathname from a directory and a file name part.
// A leading "./" in dir is dropped, duplicate separators at the seam are
// collapsed. An empty name yields dir, an empty dir yields name without
// leading separators.
func Join(dir, name string) string {
	if strings.HasPrefix(dir, "./") {
		dir = dir[2:]
	} else if dir == "." {
		dir = ""
	}
	if name == "" {
		return dir
	}
	name = strings.TrimLeft(name, "/")
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Compress removes redundant segments from a pathname: duplicate
// separators, "." components and resolvable ".." components. Symbolic
// links are not resolved; leading ".." segments that would climb above
// the first component are kept.
func Compress(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// Abs resolves path to an absolute form using the process working
// directory. The second result is false when resolution is impossible.
func Abs(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if filepath.IsAbs(path) {
		return Compress(path), true
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return Compress(wd + "/" + path), true
}
