package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/pkg/bufpool"
	"github.com/pressdrop/fileops/pkg/fsx"
	"github.com/pressdrop/fileops/pkg/metrics"
	"github.com/pressdrop/fileops/pkg/pathops"
)

// DefaultParallel is the transfer concurrency used when Options.Parallel
// is not positive.
const DefaultParallel = 4

// Options configures a Coordinator.
type Options struct {
	// Parallel caps the number of concurrent transfers.
	Parallel int

	// Timeout bounds a single transfer, 0 means no bound.
	Timeout time.Duration

	// Verify selects the mismatch policy, VerifyWarn when empty.
	Verify VerifyPolicy

	// Executor dispatches completion callbacks, nil runs them inline on
	// the transfer goroutine.
	Executor Executor

	// Metrics receives transfer observations, nil disables collection.
	Metrics metrics.TransferMetrics
}

// Coordinator owns the job registry and runs transfers. All registry
// access is funneled through one mutex so start and completion can never
// race on the same key.
type Coordinator struct {
	opts Options
	sem  chan struct{}

	mu   sync.Mutex
	jobs map[string]*job

	wg sync.WaitGroup
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	if opts.Parallel <= 0 {
		opts.Parallel = DefaultParallel
	}
	if opts.Verify == "" {
		opts.Verify = VerifyWarn
	}
	return &Coordinator{
		opts: opts,
		sem:  make(chan struct{}, opts.Parallel),
		jobs: make(map[string]*job),
	}
}

// AlreadyCurrent reports whether the destination already holds a file
// matching the spec: it exists, has the expected size (when known) and is
// not older than the expected mtime (when known).
func (c *Coordinator) AlreadyCurrent(spec JobSpec) bool {
	f := fsx.NewFile(spec.DestPath())
	if !f.Exists() {
		return false
	}
	if spec.ExpectedSize > 0 && f.Size() != spec.ExpectedSize {
		return false
	}
	if !spec.ExpectedMtime.IsZero() && f.Mtime().Before(spec.ExpectedMtime) {
		return false
	}
	return true
}

// Schedule registers the job and starts its transfer in the background.
// A job whose ID is already in flight is rejected with ErrDuplicateJob.
// The callback fires exactly once with the outcome.
func (c *Coordinator) Schedule(ctx context.Context, spec JobSpec, cb Callback) error {
	if spec.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if spec.Source == nil {
		return fmt.Errorf("job %s: source is required", spec.ID)
	}

	var jobCtx context.Context
	var cancel context.CancelFunc
	if c.opts.Timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	j := &job{
		spec:    spec,
		cancel:  cancel,
		started: time.Now(),
		done:    make(chan struct{}),
		cb:      cb,
	}

	c.mu.Lock()
	if _, exists := c.jobs[spec.ID]; exists {
		c.mu.Unlock()
		cancel()
		return ErrDuplicateJob
	}
	c.jobs[spec.ID] = j
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(jobCtx, j)
	return nil
}

// Fetch runs the job synchronously. When the job's ID collides with an
// in-flight job it waits for that job to finish and retries exactly once;
// no other error class is retried.
func (c *Coordinator) Fetch(ctx context.Context, spec JobSpec) (Result, error) {
	res, err := c.fetch(ctx, spec)
	if !errors.Is(err, ErrDuplicateJob) {
		return res, err
	}
	if existing := c.lookup(spec.ID); existing != nil {
		select {
		case <-existing.done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return c.fetch(ctx, spec)
}

func (c *Coordinator) fetch(ctx context.Context, spec JobSpec) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	if err := c.Schedule(ctx, spec, func(res Result, err error) {
		ch <- outcome{res, err}
	}); err != nil {
		return Result{}, err
	}
	o := <-ch
	return o.res, o.err
}

// Cancel aborts the in-flight job with the given ID. It reports whether a
// job was found; the registry entry is removed by the transfer itself.
func (c *Coordinator) Cancel(id string) bool {
	j := c.lookup(id)
	if j == nil {
		return false
	}
	j.cancel()
	return true
}

// Jobs returns a snapshot of the in-flight registry, ordered by ID.
func (c *Coordinator) Jobs() []JobInfo {
	c.mu.Lock()
	infos := make([]JobInfo, 0, len(c.jobs))
	for _, j := range c.jobs {
		infos = append(infos, JobInfo{
			ID:        j.spec.ID,
			Source:    j.spec.Source.String(),
			Dest:      j.spec.DestPath(),
			StartedAt: j.started,
		})
	}
	c.mu.Unlock()
	sort.Slice(infos, func(a, b int) bool { return infos[a].ID < infos[b].ID })
	return infos
}

// Wait blocks until every scheduled transfer has finished.
func (c *Coordinator) Wait() { c.wg.Wait() }

func (c *Coordinator) lookup(id string) *job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[id]
}

// unregister removes the job's registry entry. The last writer for a key
// wins: the entry is only deleted when it still belongs to this job.
func (c *Coordinator) unregister(j *job) {
	c.mu.Lock()
	if c.jobs[j.spec.ID] == j {
		delete(c.jobs, j.spec.ID)
	}
	c.mu.Unlock()
}

func (c *Coordinator) run(ctx context.Context, j *job) {
	defer c.wg.Done()
	defer close(j.done)
	defer c.unregister(j)
	defer j.cancel()

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		j.fire(c.opts.Executor, Result{ID: j.spec.ID}, ctx.Err())
		return
	}

	res, err := c.transfer(ctx, j.spec)
	if err != nil {
		logger.Error("download failed",
			logger.KeyJobID, j.spec.ID,
			logger.KeyURL, j.spec.Source.String(),
			logger.KeyError, err)
	}
	j.fire(c.opts.Executor, res, err)
}

func (c *Coordinator) transfer(ctx context.Context, spec JobSpec) (Result, error) {
	source := spec.Source.String()
	m := c.opts.Metrics
	start := time.Now()

	if c.AlreadyCurrent(spec) {
		if m != nil {
			m.RecordSkipped(source)
		}
		logger.Debug("destination already current",
			logger.KeyJobID, spec.ID, logger.KeyDest, spec.DestPath())
		return Result{ID: spec.ID, Path: spec.DestPath(), Skipped: true}, nil
	}

	if m != nil {
		m.RecordStarted(source)
	}

	body, _, err := spec.Source.Open(ctx, spec)
	if errors.Is(err, ErrNotModified) {
		if m != nil {
			m.RecordSkipped(source)
		}
		return Result{ID: spec.ID, Path: spec.DestPath(), Skipped: true}, nil
	}
	if err != nil {
		if m != nil {
			m.RecordFailed(source, failReason(err))
		}
		return Result{ID: spec.ID}, fmt.Errorf("open %s: %w", source, err)
	}
	defer body.Close()

	tmp, err := pathops.TmpFile(spec.Name)
	if err != nil {
		if m != nil {
			m.RecordFailed(source, "placement")
		}
		return Result{ID: spec.ID}, err
	}

	hash := sha256.New()
	n, err := streamTo(tmp, io.TeeReader(body, hash))
	if err != nil {
		os.Remove(tmp)
		if m != nil {
			m.RecordFailed(source, failReason(err))
		}
		return Result{ID: spec.ID}, fmt.Errorf("transfer %s: %w", source, err)
	}
	digest := hex.EncodeToString(hash.Sum(nil))

	if !spec.ExpectedMtime.IsZero() {
		if terr := fsx.NewFile(tmp).Touch(spec.ExpectedMtime, time.Time{}); terr != nil {
			logger.Warn("failed to apply remote mtime",
				logger.KeyJobID, spec.ID, logger.KeyError, terr)
		}
	}

	dest := spec.DestPath()
	if err := fsx.NewFile(tmp).Move(dest, true, true); err != nil {
		os.Remove(tmp)
		if m != nil {
			m.RecordFailed(source, "placement")
		}
		return Result{ID: spec.ID}, fmt.Errorf("place %s: %w", dest, err)
	}

	res := Result{
		ID:       spec.ID,
		Path:     dest,
		Bytes:    n,
		SHA256:   digest,
		Duration: time.Since(start),
	}
	if err := c.verify(spec, res); err != nil {
		return res, err
	}

	if m != nil {
		m.RecordCompleted(source, n, res.Duration)
	}
	logger.Info("download complete",
		logger.KeyJobID, spec.ID,
		logger.KeyDest, dest,
		logger.KeyBytes, n,
		logger.KeyMs, logger.Duration(start))
	return res, nil
}

// verify checks the placed file against the spec's expectations. Under
// VerifyWarn a mismatch is logged and the job still succeeds; under
// VerifyFail the file is removed and the job fails.
func (c *Coordinator) verify(spec JobSpec, res Result) error {
	var mismatch string
	switch {
	case spec.ExpectedSize > 0 && res.Bytes != spec.ExpectedSize:
		mismatch = "size"
	case spec.ExpectedSHA256 != "" && !strings.EqualFold(res.SHA256, spec.ExpectedSHA256):
		mismatch = "checksum"
	default:
		return nil
	}

	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordVerifyFailure(mismatch)
	}
	if c.opts.Verify == VerifyFail {
		if err := fsx.NewFile(res.Path).Remove(); err != nil {
			logger.Error("failed to remove unverified file",
				logger.KeyPath, res.Path, logger.KeyError, err)
		}
		return fmt.Errorf("%s mismatch for %s: %w", mismatch, res.Path, ErrVerifyFailed)
	}
	logger.Warn("download verification mismatch",
		logger.KeyJobID, res.ID,
		logger.KeyPath, res.Path,
		"kind", mismatch,
		logger.KeyBytes, res.Bytes,
		logger.KeySHA, res.SHA256)
	return nil
}

// streamTo writes r to path, which TmpFile has already created.
func streamTo(path string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return 0, err
	}
	n, err := bufpool.Stream(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func failReason(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "transfer"
}
