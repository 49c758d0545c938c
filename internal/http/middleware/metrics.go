package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/metrics"
)

// Metrics пишет длительность запросов в prometheus.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
