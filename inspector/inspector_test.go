package inspector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/logging"
	"github.com/seo-optimizer/seo-inspector/stats"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	snap  *analyzer.PageSnapshot
	err   error
}

func (f *fakeFetcher) Capture(ctx context.Context, pageURL string) (*analyzer.PageSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.URL = pageURL
	return &snap, nil
}

func newTestInspector(t *testing.T, fetcher *fakeFetcher) (*Inspector, *stats.Storage) {
	t.Helper()

	storage, err := stats.NewStorage(t.TempDir(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Shutdown() })

	return New(fetcher, analyzer.New(), storage, DefaultOptions(), logging.Discard()), storage
}

func TestInspectCachesReports(t *testing.T) {
	fetcher := &fakeFetcher{snap: &analyzer.PageSnapshot{Hostname: "example.com", Title: "Short"}}
	insp, storage := newTestInspector(t, fetcher)

	first, err := insp.Inspect(context.Background(), "https://example.com/")
	require.NoError(t, err)
	// short title, no description, no canonical, no h1, no schema
	assert.Equal(t, 55, first.SEOScore)
	assert.True(t, insp.IsCached("https://example.com/"))

	second, err := insp.Inspect(context.Background(), "https://example.com/")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.calls)

	current := storage.GetCurrentStats()
	assert.Equal(t, 2, current.Analyses)
	assert.Equal(t, 1, current.ReportCacheHits)
	assert.Equal(t, 1, current.ReportCacheMisses)

	insp.ClearCache()
	assert.False(t, insp.IsCached("https://example.com/"))
}

func TestInspectCaptureFailure(t *testing.T) {
	cause := errors.New("connection refused")
	fetcher := &fakeFetcher{err: cause}
	insp, storage := newTestInspector(t, fetcher)

	report, err := insp.Inspect(context.Background(), "https://down.example.com/")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrCaptureFailed)
	assert.ErrorIs(t, err, cause)
	assert.False(t, insp.IsCached("https://down.example.com/"))
	assert.Equal(t, 1, storage.GetCurrentStats().CaptureFailures)
}

func TestInspectHTML(t *testing.T) {
	insp, _ := newTestInspector(t, &fakeFetcher{})

	report, err := insp.InspectHTML(`<html><head><title>Inline markup page title</title>
		<link rel="canonical" href="/self"></head><body><h1>Hello</h1></body></html>`,
		"https://example.com/inline")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/inline", report.URL)
	assert.Equal(t, "Inline markup page title", report.General.MetaTitle)
	assert.Equal(t, "https://example.com/self", report.General.CanonicalURL)
	assert.False(t, insp.IsCached("https://example.com/inline"))
}

func TestInspectSnapshot(t *testing.T) {
	insp, storage := newTestInspector(t, &fakeFetcher{})

	report := insp.InspectSnapshot(nil)
	assert.Equal(t, 55, report.SEOScore)
	assert.Equal(t, 1, storage.GetCurrentStats().Analyses)
}

func TestInspectorWithoutStats(t *testing.T) {
	fetcher := &fakeFetcher{snap: &analyzer.PageSnapshot{}}
	insp := New(fetcher, analyzer.New(), nil, DefaultOptions(), logging.Discard())

	_, err := insp.Inspect(context.Background(), "https://example.com/")
	assert.NoError(t, err)
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, generateCacheKey("https://example.com/"), generateCacheKey(" https://example.com/ "))
	assert.NotEqual(t, generateCacheKey("https://example.com/a"), generateCacheKey("https://example.com/b"))
	assert.Len(t, generateCacheKey("x"), 32)
}
