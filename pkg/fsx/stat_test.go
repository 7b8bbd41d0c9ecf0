package fsx

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func TestReadStat(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "data.txt", "hello stat")

	st, err := ReadStat(path)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	if !st.IsRegular() || st.IsDir() || st.IsSymlink() {
		t.Errorf("type predicates wrong for regular file: %s", st)
	}
	if st.Size() != int64(len("hello stat")) {
		t.Errorf("Size = %d", st.Size())
	}
	if st.Mode() != 0o644 {
		t.Errorf("Mode = %o", st.Mode())
	}
	if time.Since(st.Mtime()) > time.Minute {
		t.Errorf("Mtime implausible: %v", st.Mtime())
	}

	if _, err := ReadStat(filepath.Join(dir, "absent")); err == nil {
		t.Error("ReadStat on missing file should fail")
	}
}

func TestReadLinkStat(t *testing.T) {
	dir := t.TempDir()
	target := writeTempFile(t, dir, "target", "x")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	lst, err := ReadLinkStat(link)
	if err != nil {
		t.Fatalf("ReadLinkStat: %v", err)
	}
	if !lst.IsSymlink() {
		t.Error("lstat should see the link itself")
	}
	st, err := ReadStat(link)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	if !st.IsRegular() {
		t.Error("stat should follow the link")
	}
}

func TestWriteStat(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "w.txt", "content")

	st, err := ReadStat(path)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	st.SetMode(0o600)
	st.SetMtime(past)
	st.SetAtime(past)
	if err := WriteStat(path, st); err != nil {
		t.Fatalf("WriteStat: %v", err)
	}

	got, err := ReadStat(path)
	if err != nil {
		t.Fatalf("ReadStat after write: %v", err)
	}
	if got.Mode() != 0o600 {
		t.Errorf("Mode = %o, want 600", got.Mode())
	}
	if !got.Mtime().Equal(past) {
		t.Errorf("Mtime = %v, want %v", got.Mtime(), past)
	}
}

func TestNewStat(t *testing.T) {
	st := NewStat(0o640)
	if st.Mode() != 0o640 {
		t.Errorf("Mode = %o", st.Mode())
	}
	if st.Uid() != os.Getuid() || st.Gid() != os.Getgid() {
		t.Errorf("ownership = %d/%d", st.Uid(), st.Gid())
	}
	if time.Since(st.Mtime()) > time.Minute {
		t.Errorf("Mtime not initialized to now: %v", st.Mtime())
	}
}

func TestIsType(t *testing.T) {
	dir := t.TempDir()
	file := writeTempFile(t, dir, "f", "x")

	fst, _ := ReadStat(file)
	dst, _ := ReadStat(dir)

	cases := []struct {
		st   *Stat
		spec string
		want bool
	}{
		{fst, "f", true},
		{fst, "-", true},
		{fst, "", true},
		{fst, "d", false},
		{fst, "!d", true},
		{fst, "fd", true},
		{fst, "!fp", false},
		{dst, "d", true},
		{dst, "f", false},
		{dst, "fd", true},
		{fst, "q", false},
	}
	for _, c := range cases {
		if got := c.st.IsType(c.spec); got != c.want {
			t.Errorf("IsType(%q) = %v, want %v", c.spec, got, c.want)
		}
	}

	if !IsPathType(file, "f") || IsPathType(file, "d") {
		t.Error("IsPathType on file wrong")
	}
	if IsPathType(filepath.Join(dir, "absent"), "f") {
		t.Error("IsPathType should be false for missing paths")
	}
}

func TestUserGroupWorldMode(t *testing.T) {
	st := NewStat(0o754)
	if st.UserMode() != 7 || st.GroupMode() != 5 || st.WorldMode() != 4 {
		t.Errorf("triplets = %d/%d/%d", st.UserMode(), st.GroupMode(), st.WorldMode())
	}
}
