// Package api exposes the inspector over HTTP.
package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/inspector"
	"github.com/seo-optimizer/seo-inspector/logging"
	"github.com/seo-optimizer/seo-inspector/middleware"
	"github.com/seo-optimizer/seo-inspector/stats"
)

// Deps are the services the router serves
type Deps struct {
	Inspector   *inspector.Inspector
	Statistics  *logging.Statistics
	Storage     *stats.Storage // optional
	RateLimiter *middleware.RateLimiter
	// StatsSaveEvery persists request statistics after this many analyses
	StatsSaveEvery int
	Log            logrus.FieldLogger
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(deps Deps) *gin.Engine {
	h := &handler{Deps: deps}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler(deps.Log))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.RateLimit())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if deps.Statistics != nil {
		r.Use(middleware.StatsMiddleware(deps.Statistics, deps.StatsSaveEvery, deps.Log))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/analyze", h.analyzeURL)
		api.POST("/analyze/snapshot", h.analyzeSnapshot)
		api.GET("/statistics", h.statistics)
	}

	return r
}

func (h *handler) health(c *gin.Context) {
	h.Log.WithField("ip", c.ClientIP()).Debug("Health check request received")
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required,url"`
	// HTML, when present, is analyzed as if served at URL instead of
	// fetching the page
	HTML string `json:"html"`
}

func (h *handler) analyzeURL(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	}

	h.Log.WithFields(logrus.Fields{
		"ip":     c.ClientIP(),
		"url":    request.URL,
		"inline": request.HTML != "",
	}).Info("Analyze request received")

	var (
		report *analyzer.Report
		err    error
	)
	if request.HTML != "" {
		report, err = h.Inspector.InspectHTML(request.HTML, request.URL)
	} else {
		report, err = h.Inspector.Inspect(c.Request.Context(), request.URL)
	}

	c.Set(middleware.AnalyzedURLKey, request.URL)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Set(middleware.SEOScoreKey, report.SEOScore)
	c.JSON(http.StatusOK, report)
}

func (h *handler) analyzeSnapshot(c *gin.Context) {
	var snap analyzer.PageSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page snapshot: " + err.Error(),
		})
		return
	}

	if snap.Hostname == "" {
		if u, err := url.Parse(snap.URL); err == nil {
			snap.Hostname = u.Hostname()
		}
	}

	report := h.Inspector.InspectSnapshot(&snap)

	c.Set(middleware.AnalyzedURLKey, snap.URL)
	c.Set(middleware.SEOScoreKey, report.SEOScore)
	c.JSON(http.StatusOK, report)
}

func (h *handler) fail(c *gin.Context, err error) {
	if errors.Is(err, inspector.ErrCaptureFailed) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to analyze URL: " + err.Error(),
			"code":  "capture_failed",
		})
		return
	}

	h.Log.WithError(err).Error("Analysis failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to analyze URL: " + err.Error(),
	})
}

func (h *handler) statistics(c *gin.Context) {
	result := gin.H{}
	if h.Statistics != nil {
		for k, v := range h.Statistics.GetStatistics() {
			result[k] = v
		}
	}
	if h.Storage != nil {
		current := h.Storage.GetCurrentStats()
		result["currentMonth"] = gin.H{
			"analyses":          current.Analyses,
			"reportCacheHits":   current.ReportCacheHits,
			"reportCacheMisses": current.ReportCacheMisses,
			"captureFailures":   current.CaptureFailures,
			"averageScore":      current.AverageScore(),
		}
	}
	c.JSON(http.StatusOK, result)
}
