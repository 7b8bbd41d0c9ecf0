// Package download coordinates network fetches onto the local filesystem:
// an in-memory job registry keyed by job ID, streaming to a temporary file,
// atomic placement at the destination, and post-placement verification of
// size and checksum against caller-supplied expectations.
package download

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/pressdrop/fileops/pkg/pathops"
)

var (
	// ErrDuplicateJob is returned when a job with the same ID is already
	// in flight.
	ErrDuplicateJob = errors.New("duplicate job id")

	// ErrVerifyFailed is returned under VerifyFail policy when the placed
	// file does not match the expected size or checksum.
	ErrVerifyFailed = errors.New("download verification failed")

	// ErrNotModified is returned by a Source when the remote confirms the
	// local copy is already current.
	ErrNotModified = errors.New("remote not modified")
)

// VerifyPolicy decides what a post-placement size or checksum mismatch
// does to the job outcome.
type VerifyPolicy string

const (
	// VerifyWarn logs the mismatch at warning severity and reports the
	// job as successful.
	VerifyWarn VerifyPolicy = "warn"

	// VerifyFail removes the placed file and fails the job with
	// ErrVerifyFailed.
	VerifyFail VerifyPolicy = "fail"
)

// Source produces the remote body of a download job.
type Source interface {
	// Open starts the transfer and returns the remote body along with the
	// remote size when known (-1 otherwise). Open returns ErrNotModified
	// when the remote confirms the expected mtime is still current.
	Open(ctx context.Context, spec JobSpec) (io.ReadCloser, int64, error)

	// String identifies the source for logging and metrics, e.g. a URL.
	String() string
}

// JobSpec describes one download: where the bytes come from, where they
// land, and what the caller expects the result to look like.
type JobSpec struct {
	// ID keys the job in the coordinator's registry. Scheduling a second
	// job with the ID of an in-flight one is rejected.
	ID string

	// Source produces the remote body.
	Source Source

	// Dir and Name locate the final destination.
	Dir  string
	Name string

	// ExpectedSize is the size the placed file must have, 0 or negative
	// when unknown.
	ExpectedSize int64

	// ExpectedSHA256 is the lowercase hex digest the placed file must
	// have, empty when unknown.
	ExpectedSHA256 string

	// ExpectedMtime is the remote modification time when known. It is
	// applied to the placed file and used by AlreadyCurrent.
	ExpectedMtime time.Time
}

// DestPath returns the final destination path of the job.
func (s JobSpec) DestPath() string { return pathops.Join(s.Dir, s.Name) }

// Result is the outcome of a completed job.
type Result struct {
	ID       string
	Path     string
	Bytes    int64
	SHA256   string
	Duration time.Duration

	// Skipped is true when no transfer happened because the destination
	// was already current.
	Skipped bool
}

// Callback receives the job outcome exactly once.
type Callback func(Result, error)

// Executor dispatches completion callbacks. The default runs them on the
// transfer goroutine; callers with affinity requirements supply their own.
type Executor func(func())

// JobInfo is a point-in-time view of a registry entry.
type JobInfo struct {
	ID        string    `json:"id"      yaml:"id"`
	Source    string    `json:"source"  yaml:"source"`
	Dest      string    `json:"dest"    yaml:"dest"`
	StartedAt time.Time `json:"started" yaml:"started"`
}

// job is a registry entry for one in-flight transfer.
type job struct {
	spec    JobSpec
	cancel  context.CancelFunc
	started time.Time
	done    chan struct{}

	fireOnce sync.Once
	cb       Callback
}

// fire delivers the outcome through the callback exactly once.
func (j *job) fire(exec Executor, res Result, err error) {
	j.fireOnce.Do(func() {
		if j.cb == nil {
			return
		}
		if exec != nil {
			exec(func() { j.cb(res, err) })
			return
		}
		j.cb(res, err)
	})
}
