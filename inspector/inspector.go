// Package inspector captures pages and analyzes them, caching reports per
// URL and recording usage statistics.
package inspector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/capture"
	"github.com/seo-optimizer/seo-inspector/stats"
)

// ErrCaptureFailed is returned when no snapshot could be obtained for a page.
// It is distinct from a successful analysis of an empty page.
var ErrCaptureFailed = errors.New("page capture failed")

// Options controls report caching
type Options struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

// DefaultOptions returns the caching settings used when none are configured
func DefaultOptions() Options {
	return Options{
		CacheTTL:        24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Inspector ties a Fetcher to an Analyzer
type Inspector struct {
	fetcher  capture.Fetcher
	analyzer *analyzer.Analyzer
	cache    *cache.Cache
	stats    *stats.Storage
	log      logrus.FieldLogger
}

// New creates an Inspector. storage may be nil, in which case nothing is
// recorded.
func New(fetcher capture.Fetcher, a *analyzer.Analyzer, storage *stats.Storage, opts Options, log logrus.FieldLogger) *Inspector {
	return &Inspector{
		fetcher:  fetcher,
		analyzer: a,
		cache:    cache.New(opts.CacheTTL, opts.CleanupInterval),
		stats:    storage,
		log:      log,
	}
}

// generateCacheKey creates a unique key for the URL
func generateCacheKey(pageURL string) string {
	hash := md5.Sum([]byte(strings.TrimSpace(pageURL)))
	return hex.EncodeToString(hash[:])
}

// Inspect captures pageURL and returns its report. Reports are cached per
// URL; cached reports are shared and must not be modified.
func (i *Inspector) Inspect(ctx context.Context, pageURL string) (*analyzer.Report, error) {
	key := generateCacheKey(pageURL)
	if cached, found := i.cache.Get(key); found {
		report := cached.(*analyzer.Report)
		i.record(report, true)
		i.log.WithField("url", pageURL).Debug("Report served from cache")
		return report, nil
	}

	start := time.Now()
	snap, err := i.fetcher.Capture(ctx, pageURL)
	if err != nil {
		if i.stats != nil {
			i.stats.RecordCaptureFailure()
		}
		i.log.WithError(err).WithField("url", pageURL).Warn("Failed to capture page")
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	report := i.analyzer.Analyze(snap)
	i.cache.SetDefault(key, report)
	i.record(report, false)

	i.log.WithFields(logrus.Fields{
		"url":      pageURL,
		"score":    report.SEOScore,
		"duration": time.Since(start).Milliseconds(),
	}).Info("Analyzed page")

	return report, nil
}

// InspectHTML analyzes markup supplied by the caller as if it were served
// at pageURL. Nothing is fetched and the result is not cached.
func (i *Inspector) InspectHTML(markup, pageURL string) (*analyzer.Report, error) {
	snap, err := capture.FromHTML(strings.NewReader(markup), pageURL)
	if err != nil {
		if i.stats != nil {
			i.stats.RecordCaptureFailure()
		}
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	report := i.analyzer.Analyze(snap)
	i.record(report, false)
	return report, nil
}

// InspectSnapshot analyzes a snapshot captured elsewhere
func (i *Inspector) InspectSnapshot(snap *analyzer.PageSnapshot) *analyzer.Report {
	report := i.analyzer.Analyze(snap)
	i.record(report, false)
	return report
}

// IsCached reports whether a report for pageURL is in the cache
func (i *Inspector) IsCached(pageURL string) bool {
	_, found := i.cache.Get(generateCacheKey(pageURL))
	return found
}

// ClearCache drops all cached reports
func (i *Inspector) ClearCache() {
	i.cache.Flush()
}

func (i *Inspector) record(report *analyzer.Report, cached bool) {
	if i.stats != nil {
		i.stats.RecordAnalysis(report.SEOScore, cached)
	}
}
