package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
)

// HTTPMetrics publishes request count, latency and 5xx count per route.
// Publishing happens off the request path; a nil recorder disables it.
func HTTPMetrics(recorder aws_pkg.MetricsRecorder, service string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if recorder == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		go func(path, method string, status int, dur time.Duration) {
			mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dims := map[string]string{"Service": service, "Method": method, "Path": path}
			if err := recorder.RecordCount(mctx, aws_pkg.MetricHTTPRequests, dims); err != nil && log != nil {
				log.Debug("metric publish failed", zap.Error(err))
			}
			_ = recorder.RecordLatency(mctx, aws_pkg.MetricHTTPLatency, dur, dims)
			if status >= 500 {
				_ = recorder.RecordCount(mctx, aws_pkg.MetricHTTPErrors, dims)
			}
		}(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
