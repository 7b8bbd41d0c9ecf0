package fsx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/pkg/bufpool"
	"github.com/pressdrop/fileops/pkg/pathops"
)

var (
	// ErrNotOpen is returned by handle I/O when no handle is open.
	ErrNotOpen = errors.New("no open file handle")

	// ErrNotRegular is returned by copy and move operations applied to
	// anything but a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrAlreadyOpen is returned by Open when a handle is already held.
	ErrAlreadyOpen = errors.New("file handle already open")
)

// File represents one filesystem path. The file need not exist; status is
// fetched lazily and memoized until the path changes or the status is
// written back. File is not safe for concurrent use; one open handle is
// owned by one goroutine.
type File struct {
	path  string
	st    *Stat // lstat snapshot, nil until first access or after invalidation
	deref *Stat // stat snapshot when st describes a symlink
	f     *os.File
	r     *bufio.Reader
	w     *bufio.Writer
	std   bool // handle is stdin/stdout and must not be closed
}

// NewFile returns a File for path. No filesystem access happens yet.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the current path of the entity.
func (f *File) Path() string { return f.path }

// SetPath changes the path and unconditionally drops the cached status.
func (f *File) SetPath(path string) {
	f.path = path
	f.invalidate()
}

func (f *File) invalidate() {
	f.st = nil
	f.deref = nil
}

// Basename returns the trailing path component.
func (f *File) Basename() string { return pathops.Base(f.path) }

// Dirname returns the directory part of the path.
func (f *File) Dirname() string { return pathops.Dir(f.path) }

// Extname returns the path's extension without the dot, "" if none.
func (f *File) Extname() string { return pathops.Ext(f.path) }

// Progname returns the basename without its extension.
func (f *File) Progname() string { return pathops.Prog(f.path) }

// Status returns the cached status snapshot, reading it (via lstat) on
// first access. It returns nil when the entry cannot be statted; callers
// treat a nil status like a nonexistent file.
func (f *File) Status() *Stat {
	if f.st == nil {
		st, err := ReadLinkStat(f.path)
		if err != nil {
			return nil
		}
		f.st = st
		f.deref = nil
	}
	return f.st
}

// SetStatus writes st back to the filesystem (mode, ownership, times) and
// adopts it as the current snapshot. Failures are logged and returned.
func (f *File) SetStatus(st *Stat) error {
	if err := WriteStat(f.path, st); err != nil {
		logger.Error("status write failed", logger.KeyPath, f.path, logger.KeyError, err)
		return err
	}
	f.st = st
	f.deref = nil
	return nil
}

// derefStatus resolves symbolic links: for a non-link it is the plain
// status, for a link the status of the target.
func (f *File) derefStatus() *Stat {
	st := f.Status()
	if st == nil || !st.IsSymlink() {
		return st
	}
	if f.deref == nil {
		f.deref, _ = ReadStat(f.path)
	}
	return f.deref
}

// Exists reports whether the path is accessible right now. It uses a
// lightweight access check and never consults the cached status.
func (f *File) Exists() bool { return pathops.Access(f.path, "e") }

// IsDir reports whether the entity is a directory (links are followed).
func (f *File) IsDir() bool {
	st := f.derefStatus()
	return st != nil && st.IsDir()
}

// IsRegular reports whether the entity is a regular file (links are
// followed).
func (f *File) IsRegular() bool {
	st := f.derefStatus()
	return st != nil && st.IsRegular()
}

// IsSymlink reports whether the entity itself is a symbolic link.
func (f *File) IsSymlink() bool {
	st := f.Status()
	return st != nil && st.IsSymlink()
}

// Size returns the size in bytes, 0 when no status is available.
func (f *File) Size() int64 {
	if st := f.Status(); st != nil {
		return st.Size()
	}
	return 0
}

// Mtime returns the modification time, the zero time when unavailable.
func (f *File) Mtime() time.Time {
	if st := f.Status(); st != nil {
		return st.Mtime()
	}
	return time.Time{}
}

// Atime returns the access time, the zero time when unavailable.
func (f *File) Atime() time.Time {
	if st := f.Status(); st != nil {
		return st.Atime()
	}
	return time.Time{}
}

// Ctime returns the status change time, the zero time when unavailable.
func (f *File) Ctime() time.Time {
	if st := f.Status(); st != nil {
		return st.Ctime()
	}
	return time.Time{}
}

// Mode returns the permission bits, 0 when no status is available.
func (f *File) Mode() uint32 {
	if st := f.Status(); st != nil {
		return st.Mode()
	}
	return 0
}

// IsNewer reports whether f's modification time strictly exceeds other's.
// A nonexistent entity is never newer; a nonexistent other makes an
// existing f unconditionally newer.
func (f *File) IsNewer(other *File) bool {
	if !f.Exists() {
		return false
	}
	if !other.Exists() {
		return true
	}
	return f.Mtime().After(other.Mtime())
}

// IsOlder reports whether f's modification time precedes other's. It is
// false unless both entities exist, except that a nonexistent f is older
// than any existing other.
func (f *File) IsOlder(other *File) bool {
	if !other.Exists() {
		return false
	}
	if !f.Exists() {
		return true
	}
	return f.Mtime().Before(other.Mtime())
}

// openFlags translates an fopen-style mode string into open(2) flags.
func openFlags(mode string) (int, error) {
	base := strings.TrimRight(mode, "b+")
	plus := strings.ContainsRune(mode, '+')
	switch base {
	case "r":
		if plus {
			return os.O_RDWR, nil
		}
		return os.O_RDONLY, nil
	case "w":
		if plus {
			return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
		}
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		if plus {
			return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
		}
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	}
	return 0, fmt.Errorf("invalid open mode %q", mode)
}

// Open acquires a file handle for the duration of body and guarantees it
// is released on every exit path, including panics inside body. Mode is
// an fopen-style string ("r", "w", "a", optionally with "+"). The special
// path "-" maps to stdin for read modes and stdout otherwise; standard
// streams are flushed but not closed.
func (f *File) Open(mode string, body func(*File) error) error {
	if f.f != nil {
		return ErrAlreadyOpen
	}
	flags, err := openFlags(mode)
	if err != nil {
		return err
	}
	readable := flags&os.O_WRONLY == 0
	writable := flags != os.O_RDONLY
	if f.path == "-" {
		if readable && !writable {
			f.f = os.Stdin
		} else {
			f.f = os.Stdout
			readable = false
		}
		f.std = true
	} else {
		fh, err := os.OpenFile(f.path, flags, 0o666)
		if err != nil {
			return err
		}
		f.f = fh
	}
	if readable {
		f.r = bufio.NewReader(f.f)
	}
	if writable {
		f.w = bufio.NewWriter(f.f)
	}
	defer func() {
		f.closeHandle(writable)
	}()
	return body(f)
}

// closeHandle flushes, closes (unless the handle is a standard stream)
// and resets the handle state. A writable handle invalidates the status
// cache: size and times have changed under us.
func (f *File) closeHandle(writable bool) {
	if f.w != nil {
		if err := f.w.Flush(); err != nil {
			logger.Error("flush failed", logger.KeyPath, f.path, logger.KeyError, err)
		}
	}
	if f.f != nil && !f.std {
		if err := f.f.Close(); err != nil {
			logger.Error("close failed", logger.KeyPath, f.path, logger.KeyError, err)
		}
	}
	f.f = nil
	f.r = nil
	f.w = nil
	f.std = false
	if writable {
		f.invalidate()
	}
}

// ReadLine reads one line from the open handle. Trailing newline and
// carriage-return characters are stripped. io.EOF is returned at end of
// input, ErrNotOpen without an open readable handle.
func (f *File) ReadLine() (string, error) {
	if f.r == nil {
		return "", ErrNotOpen
	}
	line, err := f.r.ReadString('\n')
	if len(line) == 0 {
		if err == nil {
			err = io.EOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes s to the open handle, appending a newline when s does
// not already end in one. It returns the number of bytes written, -1 and
// ErrNotOpen without an open writable handle.
func (f *File) WriteLine(s string) (int, error) {
	if f.w == nil {
		return -1, ErrNotOpen
	}
	n, err := f.w.WriteString(s)
	if err != nil {
		return n, err
	}
	if !strings.HasSuffix(s, "\n") {
		if err := f.w.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Read reads up to n bytes from the open handle. A negative n means "the
// file's current size". A short read returns the bytes actually read; a
// zero-byte read is end-of-file and returns io.EOF.
func (f *File) Read(n int) ([]byte, error) {
	if f.r == nil {
		return nil, ErrNotOpen
	}
	if n < 0 {
		if f.std {
			data, err := io.ReadAll(f.r)
			if len(data) == 0 && err == nil {
				err = io.EOF
			}
			return data, err
		}
		fi, err := f.f.Stat()
		if err != nil {
			return nil, err
		}
		n = int(fi.Size())
	}
	if n == 0 {
		return nil, io.EOF
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(f.r, buf)
	if got == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return buf[:got], err
}

// Write writes b through the open handle. It returns the number of bytes
// written, -1 and ErrNotOpen without an open writable handle.
func (f *File) Write(b []byte) (int, error) {
	if f.w == nil {
		return -1, ErrNotOpen
	}
	return f.w.Write(b)
}

// Flush forces buffered writes to the underlying file.
func (f *File) Flush() error {
	if f.w == nil {
		return ErrNotOpen
	}
	return f.w.Flush()
}

// Copy copies the regular file f to the path dest. The destination's
// parent directories are created as needed; an existing destination is
// removed first when overwrite is set and is an error otherwise. On
// success the destination inherits f's complete status snapshot (mode
// and times), not fresh metadata. Returns the number of bytes copied.
func (f *File) Copy(dest string, overwrite bool) (int64, error) {
	src := f.Status()
	if src == nil || !src.IsRegular() {
		return -1, fmt.Errorf("copy %s: %w", f.path, ErrNotRegular)
	}
	if err := NewDir(pathops.Dir(dest)).Create(0o755); err != nil {
		return -1, err
	}
	dst := NewFile(dest)
	if dst.Exists() {
		if !overwrite {
			return -1, fmt.Errorf("copy %s: %s already exists", f.path, dest)
		}
		if err := dst.Remove(); err != nil {
			return -1, err
		}
	}
	in, err := os.Open(f.path)
	if err != nil {
		return -1, err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(src.Mode()&0o777))
	if err != nil {
		return -1, err
	}
	n, err := bufpool.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("copy failed", logger.KeyPath, f.path, logger.KeyDest, dest, logger.KeyError, err)
		return -1, err
	}
	if err := WriteStat(dest, src); err != nil {
		logger.Error("copy status write failed", logger.KeyDest, dest, logger.KeyError, err)
		return -1, err
	}
	return n, nil
}

// CopyIfNewer copies f to dest only when f's modification time strictly
// exceeds the destination's; a missing destination counts as arbitrarily
// old. A skipped copy returns 0.
func (f *File) CopyIfNewer(dest string, overwrite bool) (int64, error) {
	if !f.IsNewer(NewFile(dest)) {
		return 0, nil
	}
	return f.Copy(dest, overwrite)
}

// Move moves the regular file f to dest, preferring an atomic rename and
// falling back to copy-plus-unlink across filesystems. Parent directories
// of dest are created first; an existing destination is removed when
// overwrite is set. With checkCaseCollision, a move between paths that
// differ only by letter case on a case-insensitive store is routed
// through a temporary name so the rename is not silently dropped.
func (f *File) Move(dest string, overwrite, checkCaseCollision bool) error {
	src := f.Status()
	if src == nil || !src.IsRegular() {
		return fmt.Errorf("move %s: %w", f.path, ErrNotRegular)
	}
	if err := NewDir(pathops.Dir(dest)).Create(0o755); err != nil {
		return err
	}
	absSrc, okSrc := pathops.Abs(f.path)
	absDst, okDst := pathops.Abs(dest)
	caseOnly := okSrc && okDst && absSrc != absDst && strings.EqualFold(absSrc, absDst)
	// Only on a case-insensitive store does a case-only rename name the
	// same directory entry; on a case-sensitive one the paths are two
	// distinct files and the normal overwrite guard applies.
	insensitive := caseOnly && !IsCaseSensitiveDir(pathops.Dir(dest))
	if insensitive && checkCaseCollision {
		// Rename through an intermediate name instead of in one step.
		// The intermediate lives in the destination's own directory;
		// $TMPDIR may be on another filesystem where rename is EXDEV.
		tf, err := os.CreateTemp(pathops.Dir(dest), pathops.Base(dest)+".*")
		if err != nil {
			return err
		}
		tmp := tf.Name()
		tf.Close()
		os.Remove(tmp)
		if err := os.Rename(f.path, tmp); err != nil {
			return err
		}
		if err := os.Rename(tmp, dest); err != nil {
			logger.Error("case move failed", logger.KeyPath, f.path, logger.KeyDest, dest, logger.KeyError, err)
			return err
		}
		f.invalidate()
		return nil
	}
	if !insensitive {
		dst := NewFile(dest)
		if dst.Exists() {
			if !overwrite {
				return fmt.Errorf("move %s: %s already exists", f.path, dest)
			}
			if err := dst.Remove(); err != nil {
				return err
			}
		}
	}
	err := os.Rename(f.path, dest)
	if err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && linkErr.Err == unix.EXDEV {
			if _, cerr := f.Copy(dest, overwrite); cerr != nil {
				return cerr
			}
			err = os.Remove(f.path)
		}
	}
	if err != nil {
		logger.Error("move failed", logger.KeyPath, f.path, logger.KeyDest, dest, logger.KeyError, err)
		return err
	}
	f.invalidate()
	return nil
}

// Remove deletes the entity: recursively for a directory, unlink for
// anything else. A nonexistent entity is a no-op.
func (f *File) Remove() error {
	st, err := ReadLinkStat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if st.IsDir() {
		err = os.RemoveAll(f.path)
	} else {
		err = os.Remove(f.path)
	}
	if err != nil {
		logger.Error("remove failed", logger.KeyPath, f.path, logger.KeyError, err)
		return err
	}
	f.invalidate()
	return nil
}

// ReadLinkTarget returns the target path if and only if the entity exists
// and is a symbolic link.
func (f *File) ReadLinkTarget() (string, bool) {
	st, err := ReadLinkStat(f.path)
	if err != nil || !st.IsSymlink() {
		return "", false
	}
	target, err := os.Readlink(f.path)
	if err != nil {
		return "", false
	}
	return target, true
}

// Link creates f's path as a symbolic link pointing at target. When both
// paths resolve, the stored link target is made relative; otherwise the
// passed target is used verbatim. Target should be absolute, a relative
// target yields an implementation-defined link.
func (f *File) Link(target string) error {
	if rel, err := pathops.LinkPath(target, f.path); err == nil {
		if err := os.Symlink(rel, f.path); err == nil {
			f.invalidate()
			return nil
		}
	}
	if err := os.Symlink(target, f.path); err != nil {
		logger.Error("symlink failed", logger.KeyPath, f.path, logger.KeyDest, target, logger.KeyError, err)
		return err
	}
	f.invalidate()
	return nil
}

// Touch creates the file when absent and sets its access and modification
// times; zero time values default to now. Touch is a best-effort
// convenience and reports failure via its error result without logging.
func (f *File) Touch(mtime, atime time.Time) error {
	now := time.Now()
	if mtime.IsZero() {
		mtime = now
	}
	if atime.IsZero() {
		atime = now
	}
	if _, err := ReadStat(f.path); err != nil {
		fh, cerr := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE, 0o660)
		if cerr != nil {
			return cerr
		}
		fh.Close()
	}
	tvs := []unix.Timeval{
		unix.NsecToTimeval(atime.UnixNano()),
		unix.NsecToTimeval(mtime.UnixNano()),
	}
	err := unix.Utimes(f.path, tvs)
	f.invalidate()
	return err
}

// Chmod applies a chmod-style mode specification (symbolic or octal, see
// ParseMode) to the current mode and writes the result back. It fails
// with an explicit error when no status is available or the
// specification does not parse.
func (f *File) Chmod(spec string) error {
	st := f.Status()
	if st == nil {
		return fmt.Errorf("chmod %s: no status available", f.path)
	}
	mode, err := ParseMode(spec, st.Mode(), 0)
	if err != nil {
		return err
	}
	// Work on a copy so a failed write-back leaves the cached snapshot
	// reporting the mode that is actually on disk.
	next := *st
	next.SetMode(mode)
	return f.SetStatus(&next)
}
