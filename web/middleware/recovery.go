package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/filedock/filedock/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panicking handler into a 500 JSON reply.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, v any) {
		logger.Errorf("panic serving %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, v, debug.Stack())
		abortWithMsg(c, http.StatusInternalServerError, "internal", "server.internal")
	})
}
