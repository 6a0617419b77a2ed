package controller

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/service"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// jsonMsg replies 200 with a message.
func jsonMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, entity.Msg{Message: msg})
}

// pureJsonMsg replies with a message, a kind and a custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, kind service.ErrorKind, msg string) {
	c.JSON(statusCode, entity.Msg{Message: msg, Kind: string(kind)})
}

func statusOf(kind service.ErrorKind) int {
	switch kind {
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation, service.KindTraversal:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// jsonError maps a service error to its status and a localized message.
// Internal failures are logged; their details never reach the client.
func jsonError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	var msg string
	var e *service.Error
	if errors.As(err, &e) {
		msg = I18nWeb(c, e.Key, e.Params...)
	} else if kind == service.KindInternal {
		msg = I18nWeb(c, "server.internal")
	} else {
		msg = I18nWeb(c, "files.invalidPath", "Path==")
	}

	switch kind {
	case service.KindInternal:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	case service.KindTraversal:
		logger.Warningf("rejected path from %s on %s: %v", getRemoteIp(c), c.Request.URL.Path, err)
	}
	pureJsonMsg(c, statusOf(kind), kind, msg)
}

// bindJSON decodes the request body into obj and replies 400 when it is malformed.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, service.KindValidation, I18nWeb(c, "files.invalidRequest"))
		return false
	}
	return true
}
