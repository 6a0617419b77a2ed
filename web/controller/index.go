package controller

import (
	"net/http"
	"text/template"
	"time"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/middleware"
	"github.com/filedock/filedock/web/service"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-gonic/gin"
)

// IndexController handles login, logout and the session probe.
type IndexController struct {
	BaseController

	userService   *service.UserService
	sessionMaxAge time.Duration
	secureCookie  bool
}

// NewIndexController registers the session routes on g. limiter guards /login.
func NewIndexController(g *gin.RouterGroup, userService *service.UserService, sessionMaxAge time.Duration, secureCookie bool, limiter *middleware.RateLimiter) *IndexController {
	a := &IndexController{userService: userService, sessionMaxAge: sessionMaxAge, secureCookie: secureCookie}
	a.initRouter(g, limiter)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup, limiter *middleware.RateLimiter) {
	if limiter != nil {
		g.POST("/login", middleware.RateLimitMiddleware(limiter), a.login)
	} else {
		g.POST("/login", a.login)
	}
	g.GET("/session", a.session)
	g.POST("/logout", a.logout)
}

func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, service.KindValidation, I18nWeb(c, "files.invalidRequest"))
		return
	}

	user, err := a.userService.CheckUser(form.Username, form.Password, form.TwoFactorCode)
	if err != nil {
		jsonError(c, err)
		return
	}
	safeUser := template.HTMLEscapeString(form.Username)
	if user == nil {
		logger.Warningf("failed login for %q from %s", safeUser, getRemoteIp(c))
		pureJsonMsg(c, http.StatusUnauthorized, service.KindUnauthorized, I18nWeb(c, "login.failed"))
		return
	}

	if err := session.SetLoginUser(c, user, a.sessionMaxAge, a.secureCookie); err != nil {
		logger.Warning("Unable to save session:", err)
		pureJsonMsg(c, http.StatusInternalServerError, service.KindInternal, I18nWeb(c, "server.internal"))
		return
	}
	logger.Infof("%s logged in from %s", safeUser, getRemoteIp(c))
	jsonMsg(c, I18nWeb(c, "login.success"))
}

func (a *IndexController) session(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user == nil {
		c.JSON(http.StatusOK, entity.SessionInfo{LoggedIn: false})
		return
	}
	c.JSON(http.StatusOK, entity.SessionInfo{LoggedIn: true, Username: user.Username})
}

func (a *IndexController) logout(c *gin.Context) {
	if user := session.GetLoginUser(c); user != nil {
		logger.Infof("%s logged out", user.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	jsonMsg(c, I18nWeb(c, "login.loggedOut"))
}
