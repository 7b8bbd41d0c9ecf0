package fsx

import (
	"os"
	"strings"

	"github.com/pressdrop/fileops/pkg/pathops"
)

// IsCaseSensitiveDir probes whether the filesystem holding dir
// distinguishes letter case. It creates a probe file with a lower-case
// name and checks whether the upper-cased name resolves to it. When the
// probe cannot be created the store is assumed case sensitive.
func IsCaseSensitiveDir(dir string) bool {
	f, err := os.CreateTemp(dir, "casecheck-*")
	if err != nil {
		return true
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)
	swapped := pathops.Join(dir, strings.ToUpper(pathops.Base(name)))
	return !pathops.Access(swapped, "e")
}
