package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/afterschool-api/internal/service"
)

// scrapePaths are not recorded so health checks and scrapes do not dominate the histograms.
var scrapePaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

// Metrics records request count and latency labelled by route template.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		if _, skip := scrapePaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
