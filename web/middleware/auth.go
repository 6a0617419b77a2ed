// Package middleware holds the gin middleware shared by all filedock routes.
package middleware

import (
	"net/http"

	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/locale"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-gonic/gin"
)

func abortWithMsg(c *gin.Context, status int, kind, key string) {
	c.AbortWithStatusJSON(status, entity.Msg{
		Message: locale.Localize(locale.FromContext(c), key),
		Kind:    kind,
	})
}

// LoginRequired rejects requests without a valid session with 401.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsLogin(c) {
			abortWithMsg(c, http.StatusUnauthorized, "unauthorized", "login.required")
			return
		}
		c.Next()
	}
}

// LoginRequiredIf applies LoginRequired only when enabled is true.
func LoginRequiredIf(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return LoginRequired()
}
