package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seo-inspector/logging"
)

// Context keys the analysis handlers set for StatsMiddleware
const (
	AnalyzedURLKey = "analyzedURL"
	SEOScoreKey    = "seoScore"
)

// StatsMiddleware tracks visitors and analysis requests. Statistics are
// saved asynchronously every saveEvery analysis requests.
func StatsMiddleware(stats *logging.Statistics, saveEvery int, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		// Only track analysis requests
		if c.Request.Method != "POST" || c.GetString(AnalyzedURLKey) == "" {
			return
		}

		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackAnalysis(c.GetString(AnalyzedURLKey), loadTime, c.GetInt(SEOScoreKey), c.Writer.Status() >= 400)

		if saveEvery > 0 && stats.TotalRequests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					log.WithError(err).Error("Failed to save request statistics")
				}
			}()
		}
	}
}
