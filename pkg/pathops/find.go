package pathops

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Access checks whether path is accessible in the ways given by mode,
// a string of the letters "e"/"f" (exists), "r", "w" and "x".
// It wraps access(2) and never consults cached state.
func Access(path, mode string) bool {
	var m uint32
	for _, c := range mode {
		switch c {
		case 'e', 'f':
			m |= unix.F_OK
		case 'r':
			m |= unix.R_OK
		case 'w':
			m |= unix.W_OK
		case 'x':
			m |= unix.X_OK
		}
	}
	return unix.Access(path, m) == nil
}

// Find searches for name in a colon-separated list of directories and
// returns the first hit accessible per mode (see Access; "" means "e").
// An absolute name is returned unchanged without searching.
func Find(searchPath, name, mode string) (string, bool) {
	if name == "" {
		return "", false
	}
	if mode == "" {
		mode = "e"
	}
	if strings.HasPrefix(name, "/") {
		return name, true
	}
	for _, dir := range strings.Split(searchPath, ":") {
		if dir == "" {
			dir = "."
		}
		path := Join(dir, name)
		if Access(path, mode) {
			return path, true
		}
	}
	return "", false
}

// PathFind looks for an executable file on $PATH.
func PathFind(name string) (string, bool) {
	return Find(os.Getenv("PATH"), name, "x")
}
