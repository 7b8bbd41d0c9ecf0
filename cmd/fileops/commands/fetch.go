package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pressdrop/fileops/internal/bytesize"
	"github.com/pressdrop/fileops/internal/cli/output"
	"github.com/pressdrop/fileops/internal/logger"
	"github.com/pressdrop/fileops/internal/telemetry"
	"github.com/pressdrop/fileops/pkg/config"
	"github.com/pressdrop/fileops/pkg/download"
	"github.com/pressdrop/fileops/pkg/metrics"
	promtrans "github.com/pressdrop/fileops/pkg/metrics/prometheus"
	"github.com/pressdrop/fileops/pkg/pathops"
)

var (
	fetchDest   string
	fetchName   string
	fetchSHA256 string
	fetchSize   string
	fetchMtime  string
	fetchListen string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL...",
	Short: "Download files",
	Long: `Download one or more URLs into the destination directory. Transfers run
in parallel under the configured limit, stream through a temporary file
and are placed atomically. A destination that already matches the
expected size and modification time is skipped.

http://, https:// and s3:// URLs are supported. S3 access is configured
in the download.s3 section of the config file.

With --listen, a status server runs for the duration of the transfers,
exposing the active job list at /jobs and Prometheus metrics at /metrics.

Examples:
  # Fetch into the configured store root
  fileops fetch https://example.com/data/catalog.pdf

  # Verify the payload against a known digest
  fileops fetch https://example.com/app.tar.gz \
    --dest /srv/files --sha256 9f86d08...

  # Fetch from S3 with a live status endpoint
  fileops fetch s3://assets/covers/issue-42.png --listen :9090`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchDest, "dest", "d", "", "Destination directory (default: store.root from config)")
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "Destination file name (single URL only, default: URL basename)")
	fetchCmd.Flags().StringVar(&fetchSHA256, "sha256", "", "Expected SHA-256 digest (single URL only)")
	fetchCmd.Flags().StringVar(&fetchSize, "size", "", "Expected size, e.g. 1048576 or \"10MB\" (single URL only)")
	fetchCmd.Flags().StringVar(&fetchMtime, "mtime", "", "Expected modification time (RFC 3339, single URL only)")
	fetchCmd.Flags().StringVar(&fetchListen, "listen", "", "Serve job status and metrics on this address while fetching")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) > 1 && (fetchName != "" || fetchSHA256 != "" || fetchSize != "" || fetchMtime != "") {
		return errors.New("--name, --sha256, --size and --mtime apply to a single URL")
	}

	spec, err := fetchExpectations(cfg)
	if err != nil {
		return err
	}

	dest := fetchDest
	if dest == "" {
		dest = cfg.Store.Root
	}

	shutdownProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    "fileops",
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
		ProfileTypes:   cfg.Profiling.ProfileTypes,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownProfiling(); err != nil {
			logger.Warn("profiling shutdown failed", logger.KeyError, err)
		}
	}()

	if cfg.Metrics.Enabled || fetchListen != "" {
		metrics.InitRegistry()
	}

	opts := cfg.Download.CoordinatorOptions()
	opts.Metrics = promtrans.NewTransferMetrics()
	coord := download.New(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if fetchListen != "" {
		srv = statusServer(fetchListen, coord)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server failed", logger.KeyError, err)
			}
		}()
	}

	// Jobs are scheduled sequentially, so one shared client is enough.
	var s3Client *s3.Client
	getS3 := func() (*s3.Client, error) {
		if s3Client != nil {
			return s3Client, nil
		}
		c, err := download.NewS3Client(ctx, download.S3Config{
			Region:         cfg.Download.S3.Region,
			Endpoint:       cfg.Download.S3.Endpoint,
			ForcePathStyle: cfg.Download.S3.ForcePathStyle,
			AccessKey:      cfg.Download.S3.AccessKey,
			SecretKey:      cfg.Download.S3.SecretKey,
		})
		if err == nil {
			s3Client = c
		}
		return c, err
	}

	var mu sync.Mutex
	failures := 0

	for _, raw := range args {
		job, err := buildJob(cfg, raw, dest, spec, getS3)
		if err != nil {
			return err
		}
		err = coord.Schedule(ctx, job, func(res download.Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures++
				fmt.Printf("FAILED   %s: %v\n", res.ID, err)
			case res.Skipped:
				fmt.Printf("SKIPPED  %s: already current\n", res.ID)
			default:
				fmt.Printf("FETCHED  %s -> %s (%s in %s)\n",
					res.ID, res.Path, bytesize.Format(res.Bytes), res.Duration.Round(time.Millisecond))
			}
		})
		if err != nil {
			return err
		}
	}

	coord.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", logger.KeyError, err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d transfers failed", failures, len(args))
	}
	return nil
}

// fetchExpectations parses the single-URL verification flags and applies
// the configured size ceiling.
func fetchExpectations(cfg *config.Config) (download.JobSpec, error) {
	var spec download.JobSpec
	spec.ExpectedSHA256 = fetchSHA256

	if fetchSize != "" {
		size, err := bytesize.Parse(fetchSize)
		if err != nil {
			return spec, fmt.Errorf("invalid --size %q: %w", fetchSize, err)
		}
		spec.ExpectedSize = size.Int64()
	}
	if fetchMtime != "" {
		t, err := time.Parse(time.RFC3339, fetchMtime)
		if err != nil {
			return spec, fmt.Errorf("invalid --mtime %q: %w", fetchMtime, err)
		}
		spec.ExpectedMtime = t
	}
	if max := cfg.Download.MaxSize.Int64(); max > 0 && spec.ExpectedSize > max {
		return spec, fmt.Errorf("expected size %s exceeds the configured limit %s",
			bytesize.Format(spec.ExpectedSize), cfg.Download.MaxSize)
	}
	return spec, nil
}

// buildJob resolves one URL into a job spec with the right source.
func buildJob(cfg *config.Config, raw, dest string, base download.JobSpec, getS3 func() (*s3.Client, error)) (download.JobSpec, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return download.JobSpec{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	spec := base
	spec.ID = raw
	spec.Dir = dest

	switch u.Scheme {
	case "http", "https":
		var opts []download.HTTPOption
		if cfg.Download.UserAgent != "" {
			opts = append(opts, download.WithUserAgent(cfg.Download.UserAgent))
		}
		spec.Source = download.NewHTTPSource(raw, opts...)
		spec.Name = pathops.Base(u.Path)
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return download.JobSpec{}, fmt.Errorf("invalid S3 URL %q: want s3://bucket/key", raw)
		}
		client, err := getS3()
		if err != nil {
			return download.JobSpec{}, err
		}
		spec.Source = download.NewS3Source(client, u.Host, key)
		spec.Name = pathops.Base(key)
	default:
		return download.JobSpec{}, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if fetchName != "" {
		spec.Name = fetchName
	}
	if spec.Name == "" || spec.Name == "/" || spec.Name == "." {
		return download.JobSpec{}, fmt.Errorf("cannot derive a file name from %q, use --name", raw)
	}
	return spec, nil
}

// statusServer exposes the in-flight job list and Prometheus metrics.
func statusServer(addr string, coord *download.Coordinator) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := output.PrintJSON(w, coord.Jobs()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
