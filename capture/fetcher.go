package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seo-inspector/analyzer"
)

// Fetcher obtains a snapshot of the page at a URL
type Fetcher interface {
	Capture(ctx context.Context, pageURL string) (*analyzer.PageSnapshot, error)
}

// Options controls how pages are fetched
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultOptions returns the fetch settings used when none are configured
func DefaultOptions() Options {
	return Options{
		Timeout:      15 * time.Second,
		UserAgent:    "SEOInspector/1.0",
		MaxBodyBytes: 10 << 20,
	}
}

// HTTPFetcher captures static HTML over plain HTTP. Scripts are not run, so
// content injected client side is not seen; use BrowserFetcher for that.
type HTTPFetcher struct {
	client *http.Client
	opts   Options
	log    logrus.FieldLogger
}

// NewHTTPFetcher creates an HTTPFetcher with a pooled transport
func NewHTTPFetcher(opts Options, log logrus.FieldLogger) *HTTPFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
		log:  log,
	}
}

// Capture fetches pageURL and builds a snapshot of the returned document.
// Relative links resolve against the final URL after redirects.
func (f *HTTPFetcher) Capture(ctx context.Context, pageURL string) (*analyzer.PageSnapshot, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTMLContentType(ct) {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, f.opts.MaxBodyBytes)); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	snap, err := FromHTML(&buf, finalURL)
	if err != nil {
		return nil, err
	}

	f.log.WithFields(logrus.Fields{
		"url":      pageURL,
		"finalUrl": finalURL,
		"bytes":    buf.Len(),
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Captured page over HTTP")

	return snap, nil
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
