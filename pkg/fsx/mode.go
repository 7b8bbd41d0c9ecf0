package fsx

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// who selector bits for symbolic mode clauses.
const (
	whoUser  = 1 << iota // u
	whoGroup             // g
	whoOther             // o
	whoAll   = whoUser | whoGroup | whoOther
)

// permission flags beyond the plain rwx triplet.
const (
	permSetID = 1 << iota // s: set-uid / set-gid
	permSticky            // t: sticky bit
	permLock              // l: mandatory locking (g-x,g+s)
	permDirX              // X: execute only for directories or if any x set
)

// anyExec is set when the mode already carries an execute bit or
// describes a directory; the "X" permission applies only then.
const anyExec = unix.S_IXUSR | unix.S_IXGRP | unix.S_IXOTH | unix.S_IFDIR

// ErrBadMode is wrapped by all ParseMode syntax errors.
var ErrBadMode = fmt.Errorf("invalid mode specification")

// ParseMode applies a chmod-style mode specification to the current mode
// and returns the resulting permission bits. The specification is either
// an octal number or a comma-separated list of symbolic clauses:
//
//	clause     =  { who } action { action }.
//	who        =  "u" | "g" | "o" | "a".
//	action     =  ( "+" | "-" | "=" ) { permission }.
//	permission =  "r" | "w" | "x" | "X" | "s" | "t" | "l" |
//	              "u" | "g" | "o".
//
// "X" grants execute only to directories and files already executable,
// "s" is set-uid/set-gid, "t" the sticky bit, "l" mandatory locking and
// "u"/"g"/"o" copy the respective permission triplet of the current mode.
// When who is omitted it defaults to "a" and umask-masked bits are left
// alone; an explicit who ignores umask, matching chmod(1).
func ParseMode(spec string, current uint32, umask uint32) (uint32, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadMode)
	}
	if spec[0] >= '0' && spec[0] <= '9' {
		val, err := strconv.ParseUint(spec, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not octal", ErrBadMode, spec)
		}
		return uint32(val) & modeBits, nil
	}
	mode := current
	for _, clause := range strings.Split(spec, ",") {
		clause = strings.TrimSpace(clause)
		m, err := applyClause(clause, mode, umask)
		if err != nil {
			return 0, err
		}
		mode = m
	}
	return mode & modeBits, nil
}

// applyClause evaluates one symbolic clause against mode.
func applyClause(clause string, mode uint32, umask uint32) (uint32, error) {
	if clause == "" {
		return 0, fmt.Errorf("%w: empty clause", ErrBadMode)
	}
	who := 0
	i := 0
scanWho:
	for ; i < len(clause); i++ {
		switch clause[i] {
		case 'u':
			who |= whoUser
		case 'g':
			who |= whoGroup
		case 'o':
			who |= whoOther
		case 'a':
			who |= whoAll
		default:
			break scanWho
		}
	}
	if who != 0 {
		umask = 0 // explicit who overrides umask, like chmod(1)
	} else {
		who = whoAll
	}
	if i >= len(clause) {
		return 0, fmt.Errorf("%w: %q has no operator", ErrBadMode, clause)
	}
	for i < len(clause) {
		op := clause[i]
		if op != '+' && op != '-' && op != '=' {
			return 0, fmt.Errorf("%w: unexpected %q in %q", ErrBadMode, string(op), clause)
		}
		i++
		var perm uint32
		var flags int
	scanPerm:
		for ; i < len(clause); i++ {
			switch clause[i] {
			case 'r':
				perm |= 0o4
			case 'w':
				perm |= 0o2
			case 'x':
				perm |= 0o1
			case 'X':
				flags |= permDirX
			case 's':
				flags |= permSetID
			case 't':
				flags |= permSticky
			case 'l':
				flags |= permLock
			case 'u':
				perm |= (mode >> 6) & 0o7
			case 'g':
				perm |= (mode >> 3) & 0o7
			case 'o':
				perm |= mode & 0o7
			case '+', '-', '=':
				break scanPerm
			default:
				return 0, fmt.Errorf("%w: unknown permission %q in %q",
					ErrBadMode, string(clause[i]), clause)
			}
		}
		switch op {
		case '=':
			mode = assignPerm(who, mode, perm, flags, umask)
		case '+':
			mode = addPerm(who, mode, perm, flags, umask)
		case '-':
			mode = removePerm(who, mode, perm, flags, umask)
		}
	}
	return mode, nil
}

func assignPerm(who int, mode, perm uint32, flags int, umask uint32) uint32 {
	if who&whoAll == whoAll {
		mode &^= unix.S_ISGID | unix.S_ISVTX
	}
	if who&whoUser != 0 {
		mode &^= unix.S_ISUID | 0o7<<6
		mode |= (perm << 6) &^ umask
		if flags&permSetID != 0 {
			mode |= unix.S_ISUID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXUSR &^ umask
		}
	}
	if who&whoGroup != 0 {
		mode &^= unix.S_ISGID | 0o7<<3
		mode |= (perm << 3) &^ umask
		if flags&permSetID != 0 {
			mode |= unix.S_ISGID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXGRP &^ umask
		}
	}
	if who&whoOther != 0 {
		mode &^= 0o7
		mode |= perm &^ umask
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXOTH &^ umask
		}
	}
	if flags&permLock != 0 {
		mode &^= unix.S_IXGRP
		mode |= unix.S_ISGID &^ umask
	}
	if flags&permSticky != 0 {
		mode |= unix.S_ISVTX &^ umask
	}
	return mode
}

func addPerm(who int, mode, perm uint32, flags int, umask uint32) uint32 {
	if who&whoUser != 0 {
		mode |= (perm << 6) &^ umask
		if flags&permSetID != 0 {
			mode |= unix.S_ISUID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXUSR &^ umask
		}
	}
	if who&whoGroup != 0 {
		mode |= (perm << 3) &^ umask
		if flags&permSetID != 0 {
			mode |= unix.S_ISGID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXGRP &^ umask
		}
	}
	if who&whoOther != 0 {
		mode |= perm &^ umask
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode |= unix.S_IXOTH &^ umask
		}
	}
	if flags&permLock != 0 {
		mode &^= unix.S_IXGRP
		mode |= unix.S_ISGID &^ umask
	}
	if flags&permSticky != 0 {
		mode |= unix.S_ISVTX &^ umask
	}
	return mode
}

func removePerm(who int, mode, perm uint32, flags int, umask uint32) uint32 {
	if who&whoUser != 0 {
		mode &^= (perm << 6) &^ umask
		if flags&permSetID != 0 {
			mode &^= unix.S_ISUID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode &^= unix.S_IXUSR &^ umask
		}
	}
	if who&whoGroup != 0 {
		mode &^= (perm << 3) &^ umask
		if flags&permSetID != 0 {
			mode &^= unix.S_ISGID &^ umask
		}
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode &^= unix.S_IXGRP &^ umask
		}
	}
	if who&whoOther != 0 {
		mode &^= perm &^ umask
		if flags&permDirX != 0 && mode&anyExec != 0 {
			mode &^= unix.S_IXOTH &^ umask
		}
	}
	if flags&permLock != 0 {
		mode &^= unix.S_ISGID &^ umask
	}
	if flags&permSticky != 0 {
		mode &^= unix.S_ISVTX &^ umask
	}
	return mode
}
