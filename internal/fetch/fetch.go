// Package fetch retrieves layer resources by relative name.
package fetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/woozymasta/olsview/internal/metrics"

	"github.com/pkg/errors"
)

// Fetcher returns the raw bytes of a named resource.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusNotFound
	}
	return errors.Is(err, fs.ErrNotExist)
}

// HTTP fetches resources with plain GET requests relative to a base URL.
type HTTP struct {
	client *http.Client
	base   *url.URL
}

// NewHTTP creates an HTTP fetcher. A nil client uses http.DefaultClient.
func NewHTTP(client *http.Client, baseURL string) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("base url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTP{client: client, base: u}, nil
}

// URL resolves a resource name against the base URL, escaping each segment.
func (h *HTTP) URL(name string) string {
	return h.base.JoinPath(strings.Split(name, "/")...).String()
}

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDurationMs.WithLabelValues("http").Observe(float64(time.Since(start).Milliseconds()))
	}()

	target := h.URL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", name)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", target)
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", target)
	}

	return data, nil
}

// Dir reads resources from a local directory tree.
type Dir struct {
	fsys fs.FS
	root string
}

// NewDir creates a directory fetcher rooted at root.
func NewDir(root string) *Dir {
	return &Dir{fsys: os.DirFS(root), root: root}
}

// Fetch implements Fetcher. Names escaping the root are rejected.
func (d *Dir) Fetch(_ context.Context, name string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDurationMs.WithLabelValues("dir").Observe(float64(time.Since(start).Milliseconds()))
	}()

	data, err := fs.ReadFile(d.fsys, strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", name, d.root)
	}

	return data, nil
}
