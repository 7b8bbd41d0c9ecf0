package pathops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LinkPath evaluates the relative path to store in a symbolic link.
// target is the file the link should point at, link is the location of
// the symbolic link itself; both are resolved to absolute form first.
//
// LinkPath("/usr/bin/foo", "/bin/lfoo") == "../usr/bin/foo", so that
// symlink("../usr/bin/foo", "/bin/lfoo") yields the desired link.
func LinkPath(target, link string) (string, error) {
	at, ok := Abs(target)
	if !ok {
		return "", fmt.Errorf("cannot resolve %q", target)
	}
	al, ok := Abs(link)
	if !ok {
		return "", fmt.Errorf("cannot resolve %q", link)
	}
	rel, err := filepath.Rel(Dir(al), at)
	if err != nil {
		return "", err
	}
	return rel, nil
}

// ResolveLink evaluates a link specification given relative to the file it
// points at. file is the path of the file to link to, spec the link path
// interpreted relative to file's directory (absolute specs are taken
// as-is). It returns the relative target to pass to symlink and the
// absolute location of the link to create.
//
// ResolveLink("/bin/etc/file", "../test/foo") returns
// ("../etc/file", "/bin/test/foo").
func ResolveLink(file, spec string) (target, link string, err error) {
	if strings.HasPrefix(spec, "/") {
		link = Compress(spec)
	} else {
		link = Compress(Dir(file) + "/" + spec)
	}
	target, err = LinkPath(file, link)
	if err != nil {
		return "", "", err
	}
	return target, link, nil
}
