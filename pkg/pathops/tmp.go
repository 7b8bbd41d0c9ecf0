package pathops

import (
	"fmt"
	"os"
	"strings"
)

// TmpDir returns the directory for temporary files: the first of $TMPDIR,
// $TEMP, $TMP that is set, otherwise "/tmp". A trailing slash is trimmed.
func TmpDir() string {
	dir := os.Getenv("TMPDIR")
	if dir == "" {
		dir = os.Getenv("TEMP")
	}
	if dir == "" {
		dir = os.Getenv("TMP")
	}
	if dir == "" {
		dir = "/tmp"
	}
	return strings.TrimSuffix(dir, "/")
}

// TmpFile creates a fresh temporary file named <tmpdir>/<pid>-<idx>-<suffix>
// where idx is the first sequence number not in use. The file is created
// (O_EXCL) and its path returned.
func TmpFile(suffix string) (string, error) {
	dir := TmpDir()
	pid := os.Getpid()
	for i := 0; ; i++ {
		path := fmt.Sprintf("%s/%d-%d-%s", dir, pid, i, suffix)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}
}
