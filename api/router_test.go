package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/inspector"
	"github.com/seo-optimizer/seo-inspector/logging"
	"github.com/seo-optimizer/seo-inspector/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubFetcher struct {
	snap *analyzer.PageSnapshot
	err  error
}

func (f stubFetcher) Capture(ctx context.Context, pageURL string) (*analyzer.PageSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.URL = pageURL
	return &snap, nil
}

func newTestRouter(t *testing.T, fetcher stubFetcher) *gin.Engine {
	t.Helper()

	log := logging.Discard()
	storage, err := stats.NewStorage(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Shutdown() })

	return NewRouter(Deps{
		Inspector:  inspector.New(fetcher, analyzer.New(), storage, inspector.DefaultOptions(), log),
		Statistics: logging.NewStatistics(filepath.Join(t.TempDir(), "statistics.json"), false, log),
		Storage:    storage,
		Log:        log,
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) analyzer.Report {
	t.Helper()
	var report analyzer.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	return report
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, stubFetcher{})

	w := do(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAnalyzeURL(t *testing.T) {
	r := newTestRouter(t, stubFetcher{snap: &analyzer.PageSnapshot{
		Hostname:     "example.com",
		Title:        "A practical guide to Go tests.",
		HasCanonical: true,
		CanonicalURL: "https://example.com/",
	}})

	w := do(r, http.MethodPost, "/api/analyze", `{"url":"https://example.com/"}`)
	require.Equal(t, http.StatusOK, w.Code)

	report := decodeReport(t, w)
	assert.Equal(t, "https://example.com/", report.URL)
	assert.Equal(t, "https://example.com/", report.General.CanonicalURL)
	// no description, no h1, no schema
	assert.Equal(t, 70, report.SEOScore)
	assert.Contains(t, w.Body.String(), `"wordRelevance"`)
}

func TestAnalyzeInlineHTML(t *testing.T) {
	r := newTestRouter(t, stubFetcher{err: errors.New("should not fetch")})

	body := `{"url":"https://example.com/draft","html":"<html><head><title>Draft</title></head><body><h1>Draft</h1></body></html>"}`
	w := do(r, http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, w.Code)

	report := decodeReport(t, w)
	assert.Equal(t, "Draft", report.General.MetaTitle)
	assert.Len(t, report.Headings.Structure, 1)
}

func TestAnalyzeInvalidRequest(t *testing.T) {
	r := newTestRouter(t, stubFetcher{})

	for _, body := range []string{`{}`, `{"url":"not a url"}`, `not json`} {
		w := do(r, http.MethodPost, "/api/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid URL provided"}`, w.Body.String())
	}
}

func TestAnalyzeCaptureFailure(t *testing.T) {
	r := newTestRouter(t, stubFetcher{err: errors.New("dial tcp: connection refused")})

	w := do(r, http.MethodPost, "/api/analyze", `{"url":"https://down.example.com/"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "capture_failed", body["code"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestAnalyzeSnapshot(t *testing.T) {
	r := newTestRouter(t, stubFetcher{})

	body := `{
		"url": "https://shop.example.com/item",
		"title": "Item",
		"anchors": [{"href": "https://shop.example.com/cart"}, {"href": "https://other.example.org/"}],
		"alternates": [{"lang": "en", "href": "https://shop.example.com/en"}]
	}`
	w := do(r, http.MethodPost, "/api/analyze/snapshot", body)
	require.Equal(t, http.StatusOK, w.Code)

	report := decodeReport(t, w)
	assert.Len(t, report.Links.Internal, 1)
	assert.Len(t, report.Links.External, 1)
	assert.Len(t, report.Hreflang.Tags, 1)
	assert.NotContains(t, w.Body.String(), "null")

	w = do(r, http.MethodPost, "/api/analyze/snapshot", `{"headings": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatistics(t *testing.T) {
	r := newTestRouter(t, stubFetcher{snap: &analyzer.PageSnapshot{}})

	do(r, http.MethodPost, "/api/analyze", `{"url":"https://example.com/"}`)
	do(r, http.MethodPost, "/api/analyze", `{"url":"https://example.com/"}`)

	w := do(r, http.MethodGet, "/api/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TotalRequests int `json:"totalRequests"`
		CurrentMonth  struct {
			Analyses        int `json:"analyses"`
			ReportCacheHits int `json:"reportCacheHits"`
		} `json:"currentMonth"`
		PopularURLs []any `json:"popularUrls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TotalRequests)
	assert.Equal(t, 2, body.CurrentMonth.Analyses)
	assert.Equal(t, 1, body.CurrentMonth.ReportCacheHits)
	assert.Nil(t, body.PopularURLs)
}
