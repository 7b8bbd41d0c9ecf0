package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the library on outgoing HTTP requests when
// no agent is configured.
const DefaultUserAgent = "fileops/1.0"

// HTTPSource fetches a single URL over HTTP(S).
type HTTPSource struct {
	url       string
	client    *http.Client
	userAgent string
}

// HTTPOption customizes an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithClient sets the HTTP client used for the request.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithUserAgent sets the User-Agent header sent with the request.
func WithUserAgent(agent string) HTTPOption {
	return func(s *HTTPSource) { s.userAgent = agent }
}

// NewHTTPSource returns a source for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:       url,
		client:    http.DefaultClient,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open issues a GET for the URL. When the spec carries an expected mtime
// an If-Modified-Since header is sent and a 304 reply maps to
// ErrNotModified.
func (s *HTTPSource) Open(ctx context.Context, spec JobSpec) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	if !spec.ExpectedMtime.IsZero() {
		req.Header.Set("If-Modified-Since", spec.ExpectedMtime.UTC().Format(time.RFC1123))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, -1, err
	}
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, -1, ErrNotModified
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, -1, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// String returns the URL.
func (s *HTTPSource) String() string { return s.url }
