// Package fsx implements an object model over POSIX file operations:
// stat snapshots with write-back, file entities with cached status and
// scoped handle I/O, and directory entities with creation and scanning
// helpers.
package fsx

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Permission bit mask including set-uid, set-gid and sticky bits.
const modeBits = 0o7777

// Stat is a snapshot of the POSIX metadata of one filesystem entry.
// A snapshot is only meaningful for the path it was read from; it is
// never reused across a path change without a fresh read.
type Stat struct {
	sys unix.Stat_t
}

// NewStat returns a cleared snapshot carrying mode, the current uid/gid
// and "now" as both access and modification time.
func NewStat(mode uint32) *Stat {
	st := &Stat{}
	st.sys.Mode = mode
	st.sys.Uid = uint32(os.Getuid())
	st.sys.Gid = uint32(os.Getgid())
	now := unix.NsecToTimespec(time.Now().UnixNano())
	st.sys.Mtim = now
	st.sys.Atim = now
	return st
}

// ReadStat fetches the status of path, following symbolic links.
func ReadStat(path string) (*Stat, error) {
	st := &Stat{}
	if err := unix.Stat(path, &st.sys); err != nil {
		return nil, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return st, nil
}

// ReadLinkStat fetches the status of path itself. For a symbolic link the
// status of the link is returned, not that of its target.
func ReadLinkStat(path string) (*Stat, error) {
	st := &Stat{}
	if err := unix.Lstat(path, &st.sys); err != nil {
		return nil, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return st, nil
}

// WriteStat applies the snapshot's mode, ownership and access/modification
// times to the entry at path, following symbolic links.
func WriteStat(path string, st *Stat) error {
	if err := unix.Chmod(path, st.sys.Mode&modeBits); err != nil {
		return &os.PathError{Op: "chmod", Path: path, Err: err}
	}
	if err := unix.Chown(path, int(st.sys.Uid), int(st.sys.Gid)); err != nil {
		return &os.PathError{Op: "chown", Path: path, Err: err}
	}
	tvs := []unix.Timeval{
		unix.NsecToTimeval(st.sys.Atim.Nano()),
		unix.NsecToTimeval(st.sys.Mtim.Nano()),
	}
	if err := unix.Utimes(path, tvs); err != nil {
		return &os.PathError{Op: "utimes", Path: path, Err: err}
	}
	return nil
}

// WriteLinkStat is the non-dereferencing variant of WriteStat: it changes
// the link's status, not the status of the file pointed to. Filesystems
// that cannot change symlink permissions keep the default mode.
func WriteLinkStat(path string, st *Stat) error {
	err := unix.Fchmodat(unix.AT_FDCWD, path, st.sys.Mode&modeBits, unix.AT_SYMLINK_NOFOLLOW)
	if err != nil && err != unix.EOPNOTSUPP && err != unix.ENOTSUP {
		return &os.PathError{Op: "chmod", Path: path, Err: err}
	}
	if err := unix.Lchown(path, int(st.sys.Uid), int(st.sys.Gid)); err != nil {
		return &os.PathError{Op: "lchown", Path: path, Err: err}
	}
	tvs := []unix.Timeval{
		unix.NsecToTimeval(st.sys.Atim.Nano()),
		unix.NsecToTimeval(st.sys.Mtim.Nano()),
	}
	if err := unix.Lutimes(path, tvs); err != nil {
		return &os.PathError{Op: "lutimes", Path: path, Err: err}
	}
	return nil
}

// Size returns the size in bytes.
func (st *Stat) Size() int64 { return st.sys.Size }

// Mtime returns the modification time.
func (st *Stat) Mtime() time.Time { return time.Unix(st.sys.Mtim.Unix()) }

// Atime returns the access time.
func (st *Stat) Atime() time.Time { return time.Unix(st.sys.Atim.Unix()) }

// Ctime returns the status change time.
func (st *Stat) Ctime() time.Time { return time.Unix(st.sys.Ctim.Unix()) }

// SetMtime sets the modification time of the snapshot.
func (st *Stat) SetMtime(t time.Time) { st.sys.Mtim = unix.NsecToTimespec(t.UnixNano()) }

// SetAtime sets the access time of the snapshot.
func (st *Stat) SetAtime(t time.Time) { st.sys.Atim = unix.NsecToTimespec(t.UnixNano()) }

// Mode returns the permission bits including set-uid/set-gid/sticky.
func (st *Stat) Mode() uint32 { return st.sys.Mode & modeBits }

// SetMode replaces the permission bits, leaving the file type untouched.
func (st *Stat) SetMode(mode uint32) {
	st.sys.Mode = (st.sys.Mode &^ modeBits) | (mode & modeBits)
}

// UserMode returns the owner permission triplet (0..7).
func (st *Stat) UserMode() uint32 { return (st.sys.Mode & unix.S_IRWXU) >> 6 }

// GroupMode returns the group permission triplet (0..7).
func (st *Stat) GroupMode() uint32 { return (st.sys.Mode & unix.S_IRWXG) >> 3 }

// WorldMode returns the others permission triplet (0..7).
func (st *Stat) WorldMode() uint32 { return st.sys.Mode & unix.S_IRWXO }

func (st *Stat) isType(mask uint32) bool { return st.sys.Mode&unix.S_IFMT == mask }

// IsDir reports whether the snapshot describes a directory.
func (st *Stat) IsDir() bool { return st.isType(unix.S_IFDIR) }

// IsRegular reports whether the snapshot describes a regular file.
func (st *Stat) IsRegular() bool { return st.isType(unix.S_IFREG) }

// IsSymlink reports whether the snapshot describes a symbolic link.
func (st *Stat) IsSymlink() bool { return st.isType(unix.S_IFLNK) }

// IsFifo reports whether the snapshot describes a named pipe.
func (st *Stat) IsFifo() bool { return st.isType(unix.S_IFIFO) }

// IsSocket reports whether the snapshot describes a Unix domain socket.
func (st *Stat) IsSocket() bool { return st.isType(unix.S_IFSOCK) }

// IsCharDev reports whether the snapshot describes a character device.
func (st *Stat) IsCharDev() bool { return st.isType(unix.S_IFCHR) }

// IsBlockDev reports whether the snapshot describes a block device.
func (st *Stat) IsBlockDev() bool { return st.isType(unix.S_IFBLK) }

// IsDev reports whether the snapshot describes any device.
func (st *Stat) IsDev() bool { return st.IsCharDev() || st.IsBlockDev() }

// IsType checks the snapshot against a type specification consisting of
// the letters
//
//	"-", "f"  regular file
//	"d"       directory
//	"c"       character device
//	"b"       block device
//	"D"       any device
//	"p"       named pipe (FIFO)
//	"s"       Unix domain socket
//	"l"       symbolic link
//
// Multiple letters are or-ed; a leading "!" negates the result.
// An empty specification means "f".
func (st *Stat) IsType(spec string) bool {
	if spec == "" {
		spec = "f"
	}
	negate := false
	if spec[0] == '!' {
		negate = true
		spec = spec[1:]
	}
	match := false
	for _, c := range spec {
		switch c {
		case '-', 'f':
			match = match || st.IsRegular()
		case 'd':
			match = match || st.IsDir()
		case 'c':
			match = match || st.IsCharDev()
		case 'b':
			match = match || st.IsBlockDev()
		case 'D':
			match = match || st.IsDev()
		case 'p':
			match = match || st.IsFifo()
		case 's':
			match = match || st.IsSocket()
		case 'l':
			match = match || st.IsSymlink()
		default:
			return false
		}
	}
	if negate {
		return !match
	}
	return match
}

// IsPathType reads the status of path and checks it against spec, see
// (*Stat).IsType. A path that cannot be started is of no type.
func IsPathType(path, spec string) bool {
	st, err := ReadStat(path)
	if err != nil {
		return false
	}
	return st.IsType(spec)
}

// String renders the snapshot like "ls -l" would, e.g. "-rw-r--r--".
func (st *Stat) String() string { return ModeString(st.sys.Mode) }

// ModeString renders mode in the classic 10 character "ls -l" form.
func ModeString(mode uint32) string {
	buf := []byte("----------")
	switch mode & unix.S_IFMT {
	case unix.S_IFIFO:
		buf[0] = 'p'
	case unix.S_IFCHR:
		buf[0] = 'c'
	case unix.S_IFBLK:
		buf[0] = 'b'
	case unix.S_IFSOCK:
		buf[0] = 's'
	case unix.S_IFDIR:
		buf[0] = 'd'
	case unix.S_IFLNK:
		buf[0] = 'l'
	}
	if mode&unix.S_IRUSR != 0 {
		buf[1] = 'r'
	}
	if mode&unix.S_IWUSR != 0 {
		buf[2] = 'w'
	}
	switch {
	case mode&unix.S_ISUID != 0 && mode&unix.S_IXUSR != 0:
		buf[3] = 's'
	case mode&unix.S_ISUID != 0:
		buf[3] = 'S'
	case mode&unix.S_IXUSR != 0:
		buf[3] = 'x'
	}
	if mode&unix.S_IRGRP != 0 {
		buf[4] = 'r'
	}
	if mode&unix.S_IWGRP != 0 {
		buf[5] = 'w'
	}
	switch {
	case mode&unix.S_ISGID != 0 && mode&unix.S_IXGRP != 0:
		buf[6] = 's'
	case mode&unix.S_ISGID != 0:
		buf[6] = 'S'
	case mode&unix.S_IXGRP != 0:
		buf[6] = 'x'
	}
	if mode&unix.S_IROTH != 0 {
		buf[7] = 'r'
	}
	if mode&unix.S_IWOTH != 0 {
		buf[8] = 'w'
	}
	switch {
	case mode&unix.S_ISVTX != 0 && mode&unix.S_IXOTH != 0:
		buf[9] = 't'
	case mode&unix.S_ISVTX != 0:
		buf[9] = 'T'
	case mode&unix.S_IXOTH != 0:
		buf[9] = 'x'
	}
	return string(buf)
}

// FileMode converts the snapshot's permission bits to an os.FileMode.
func (st *Stat) FileMode() os.FileMode {
	m := os.FileMode(st.sys.Mode & 0o777)
	if st.sys.Mode&unix.S_ISUID != 0 {
		m |= os.ModeSetuid
	}
	if st.sys.Mode&unix.S_ISGID != 0 {
		m |= os.ModeSetgid
	}
	if st.sys.Mode&unix.S_ISVTX != 0 {
		m |= os.ModeSticky
	}
	return m
}

// Uid returns the owning user id.
func (st *Stat) Uid() int { return int(st.sys.Uid) }

// Gid returns the owning group id.
func (st *Stat) Gid() int { return int(st.sys.Gid) }

var _ fmt.Stringer = (*Stat)(nil)
