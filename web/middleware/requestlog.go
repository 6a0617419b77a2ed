package middleware

import (
	"time"

	"github.com/filedock/filedock/logger"

	"github.com/gin-gonic/gin"
)

// RequestLog logs one line per request. 5xx replies log as errors, 4xx as
// warnings, everything else at debug.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		format := "%s %s %d %dB %s %dms"
		args := []any{
			c.Request.Method,
			c.Request.URL.Path,
			status,
			c.Writer.Size(),
			c.ClientIP(),
			time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			logger.Errorf(format, args...)
		case status >= 400:
			logger.Warningf(format, args...)
		default:
			logger.Debugf(format, args...)
		}
	}
}
