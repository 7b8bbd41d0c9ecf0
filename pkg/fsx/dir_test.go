package fsx

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	file := writeTempFile(t, dir, "plain", "x")

	if !NewDir(dir).Exists() {
		t.Error("existing directory reported missing")
	}
	if NewDir(filepath.Join(dir, "absent")).Exists() {
		t.Error("missing directory reported existing")
	}
	// A non-directory entry at the path does not count.
	if NewDir(file).Exists() {
		t.Error("regular file reported as existing directory")
	}
}

func TestDirCreateWithParents(t *testing.T) {
	dir := t.TempDir()
	deep := filepath.Join(dir, "a", "b", "c")

	d := NewDir(deep)
	if err := d.Create(0o755); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !d.Exists() {
		t.Fatal("directory not created")
	}
	// Creating an existing directory is a no-op.
	if err := d.Create(0o755); err != nil {
		t.Errorf("Create on existing directory: %v", err)
	}

	st, err := ReadStat(deep)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	if !st.IsDir() {
		t.Error("created entry is not a directory")
	}
}

func TestDirContentsAndScan(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "b.1", "x")
	writeTempFile(t, dir, "c.2", "x")
	writeTempFile(t, dir, "a", "x")

	d := NewDir(dir)

	names := d.Contents()
	sort.Strings(names)
	if len(names) != 3 || names[0] != "a" || names[1] != "b.1" || names[2] != "c.2" {
		t.Errorf("Contents = %v", names)
	}

	withExt := d.Scan(false, func(p string) bool {
		return pathHasExt(p)
	})
	sort.Strings(withExt)
	if len(withExt) != 2 || withExt[0] != "b.1" || withExt[1] != "c.2" {
		t.Fatalf("Scan = %v, want [b.1 c.2]", withExt)
	}
	first := NewFile(withExt[0])
	if first.Extname() != "1" || first.Progname() != "b" {
		t.Errorf("Extname/Progname = %q/%q", first.Extname(), first.Progname())
	}

	abs := d.Scan(true, nil)
	for _, p := range abs {
		if !filepath.IsAbs(p) {
			t.Errorf("Scan(true) returned relative path %q", p)
		}
	}
	if len(abs) != 3 {
		t.Errorf("Scan(true) = %v", abs)
	}

	if got := NewDir(filepath.Join(dir, "absent")).Scan(false, nil); len(got) != 0 {
		t.Errorf("Scan on missing directory = %v", got)
	}
}

func TestScanExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "photo.JPG", "x")
	writeTempFile(t, dir, "scan.jpeg", "x")
	writeTempFile(t, dir, "notes.txt", "x")
	writeTempFile(t, dir, "raw", "x")

	d := NewDir(dir)
	got := d.ScanExtensions("jpg", "JPEG")
	sort.Strings(got)
	if len(got) != 2 {
		t.Fatalf("ScanExtensions = %v", got)
	}
	if filepath.Base(got[0]) != "photo.JPG" || filepath.Base(got[1]) != "scan.jpeg" {
		t.Errorf("ScanExtensions = %v", got)
	}
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("ScanExtensions returned relative path %q", p)
		}
	}
}

func TestDirRemove(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "victim")
	if err := os.MkdirAll(filepath.Join(sub, "inner"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeTempFile(t, filepath.Join(sub, "inner"), "leaf", "x")

	d := NewDir(sub)
	if err := d.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if d.Exists() {
		t.Error("directory still present")
	}
}

func pathHasExt(p string) bool {
	return NewFile(p).Extname() != ""
}
