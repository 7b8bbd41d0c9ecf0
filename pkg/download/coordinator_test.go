package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newFileServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	body := []byte("downloaded payload")
	srv := newFileServer(t, body)
	dest := t.TempDir()

	c := New(Options{})
	res, err := c.Fetch(context.Background(), JobSpec{
		ID:     "job-1",
		Source: NewHTTPSource(srv.URL),
		Dir:    dest,
		Name:   "payload.bin",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Bytes != int64(len(body)) {
		t.Errorf("Bytes = %d, want %d", res.Bytes, len(body))
	}
	if res.SHA256 != sha256Hex(body) {
		t.Errorf("SHA256 = %s", res.SHA256)
	}
	got, err := os.ReadFile(filepath.Join(dest, "payload.bin"))
	if err != nil || string(got) != string(body) {
		t.Errorf("destination content = %q, %v", got, err)
	}
	if jobs := c.Jobs(); len(jobs) != 0 {
		t.Errorf("registry not drained: %v", jobs)
	}
}

func TestFetchBadStatus(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(Options{})
	_, err := c.Fetch(context.Background(), JobSpec{
		ID:     "job-404",
		Source: NewHTTPSource(srv.URL),
		Dir:    t.TempDir(),
		Name:   "missing",
	})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchSkipsCurrentDestination(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	body := []byte("cached")
	srv := newFileServer(t, body)
	dest := t.TempDir()

	path := filepath.Join(dest, "cached.bin")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := New(Options{})
	res, err := c.Fetch(context.Background(), JobSpec{
		ID:            "job-skip",
		Source:        NewHTTPSource(srv.URL),
		Dir:           dest,
		Name:          "cached.bin",
		ExpectedSize:  int64(len(body)),
		ExpectedMtime: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Skipped {
		t.Error("transfer should have been skipped")
	}
}

func TestFetchNotModified(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	srv := newFileServer(t, []byte("unused"))

	// Destination exists but with the wrong size, so AlreadyCurrent does
	// not short-circuit; the 304 reply from the conditional GET does.
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "f"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := New(Options{})
	res, err := c.Fetch(context.Background(), JobSpec{
		ID:            "job-304",
		Source:        NewHTTPSource(srv.URL),
		Dir:           dest,
		Name:          "f",
		ExpectedSize:  100,
		ExpectedMtime: time.Now(),
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Skipped {
		t.Error("304 reply should be reported as skipped")
	}
}

func TestVerifyWarnPolicy(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	body := []byte("actual content")
	srv := newFileServer(t, body)
	dest := t.TempDir()

	c := New(Options{Verify: VerifyWarn})
	res, err := c.Fetch(context.Background(), JobSpec{
		ID:             "job-warn",
		Source:         NewHTTPSource(srv.URL),
		Dir:            dest,
		Name:           "f",
		ExpectedSHA256: sha256Hex([]byte("other content")),
	})
	if err != nil {
		t.Fatalf("warn policy must not fail the job: %v", err)
	}
	if res.Bytes != int64(len(body)) {
		t.Errorf("Bytes = %d", res.Bytes)
	}
	if _, err := os.Stat(filepath.Join(dest, "f")); err != nil {
		t.Error("file should remain in place under warn policy")
	}
}

func TestVerifyFailPolicy(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	srv := newFileServer(t, []byte("actual content"))
	dest := t.TempDir()

	c := New(Options{Verify: VerifyFail})
	_, err := c.Fetch(context.Background(), JobSpec{
		ID:             "job-fail",
		Source:         NewHTTPSource(srv.URL),
		Dir:            dest,
		Name:           "f",
		ExpectedSHA256: sha256Hex([]byte("other content")),
	})
	if !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("err = %v, want ErrVerifyFailed", err)
	}
	if _, serr := os.Stat(filepath.Join(dest, "f")); serr == nil {
		t.Error("unverified file should have been removed")
	}
}

func TestVerifyFailOnSize(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	srv := newFileServer(t, []byte("short"))

	c := New(Options{Verify: VerifyFail})
	_, err := c.Fetch(context.Background(), JobSpec{
		ID:           "job-size",
		Source:       NewHTTPSource(srv.URL),
		Dir:          t.TempDir(),
		Name:         "f",
		ExpectedSize: 9999,
	})
	if !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("err = %v, want ErrVerifyFailed", err)
	}
}

func TestScheduleDuplicate(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("slow"))
	}))
	defer srv.Close()

	c := New(Options{})
	spec := JobSpec{
		ID:     "job-dup",
		Source: NewHTTPSource(srv.URL),
		Dir:    t.TempDir(),
		Name:   "f",
	}
	if err := c.Schedule(context.Background(), spec, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := c.Schedule(context.Background(), spec, nil); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("second Schedule err = %v, want ErrDuplicateJob", err)
	}

	if jobs := c.Jobs(); len(jobs) != 1 || jobs[0].ID != "job-dup" {
		t.Errorf("Jobs = %v", jobs)
	}

	close(release)
	c.Wait()
	if jobs := c.Jobs(); len(jobs) != 0 {
		t.Errorf("registry not drained: %v", jobs)
	}
}

func TestFetchRetriesOnceOnDuplicate(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	var requests atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			<-release
		}
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	c := New(Options{})
	spec := JobSpec{
		ID:     "job-retry",
		Source: NewHTTPSource(srv.URL),
		Dir:    t.TempDir(),
		Name:   "f",
	}
	// First job blocks inside the server until released.
	if err := c.Schedule(context.Background(), spec, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// The synchronous fetch collides with the in-flight job, waits for it
	// and then succeeds on its single retry.
	fetched := make(chan struct{})
	var res Result
	var fetchErr error
	go func() {
		defer close(fetched)
		res, fetchErr = c.Fetch(context.Background(), spec)
	}()

	close(release)
	select {
	case <-fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch never returned")
	}
	if fetchErr != nil {
		t.Fatalf("Fetch: %v", fetchErr)
	}
	if res.Path != spec.DestPath() {
		t.Errorf("Path = %s", res.Path)
	}
	c.Wait()
}

func TestCancel(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	started := make(chan struct{})
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(Options{})
	outcome := make(chan error, 1)
	err := c.Schedule(context.Background(), JobSpec{
		ID:     "job-cancel",
		Source: NewHTTPSource(srv.URL),
		Dir:    t.TempDir(),
		Name:   "f",
	}, func(_ Result, err error) {
		outcome <- err
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	<-started
	if !c.Cancel("job-cancel") {
		t.Fatal("Cancel did not find the job")
	}
	if c.Cancel("no-such-job") {
		t.Error("Cancel of unknown job should report false")
	}

	select {
	case err := <-outcome:
		if err == nil {
			t.Error("cancelled job should fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
	c.Wait()
	if jobs := c.Jobs(); len(jobs) != 0 {
		t.Errorf("registry not drained: %v", jobs)
	}
}

func TestCallbackExecutor(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	srv := newFileServer(t, []byte("x"))

	executed := make(chan struct{}, 1)
	c := New(Options{
		Executor: func(fn func()) {
			executed <- struct{}{}
			fn()
		},
	})
	done := make(chan struct{})
	err := c.Schedule(context.Background(), JobSpec{
		ID:     "job-exec",
		Source: NewHTTPSource(srv.URL),
		Dir:    t.TempDir(),
		Name:   "f",
	}, func(Result, error) {
		close(done)
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
	select {
	case <-executed:
	default:
		t.Error("callback did not go through the executor")
	}
}

func TestAlreadyCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := New(Options{})
	spec := JobSpec{ID: "x", Dir: dir, Name: "f"}

	if !c.AlreadyCurrent(spec) {
		t.Error("existing destination with no expectations should be current")
	}
	spec.ExpectedSize = 5
	if !c.AlreadyCurrent(spec) {
		t.Error("matching size should be current")
	}
	spec.ExpectedSize = 6
	if c.AlreadyCurrent(spec) {
		t.Error("size mismatch should not be current")
	}
	spec.ExpectedSize = 5
	spec.ExpectedMtime = time.Now().Add(time.Hour)
	if c.AlreadyCurrent(spec) {
		t.Error("older local file should not be current")
	}
	spec.Name = "absent"
	if c.AlreadyCurrent(spec) {
		t.Error("missing destination should not be current")
	}
}
