package controller

import (
	"net/http"
	"strconv"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/service"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-gonic/gin"
)

// APIController serves the account, announcement and server routes under /api.
type APIController struct {
	BaseController

	userService         *service.UserService
	systemUpdateService *service.SystemUpdateService
	serverService       *service.ServerService
}

func NewAPIController(g *gin.RouterGroup, userService *service.UserService, systemUpdateService *service.SystemUpdateService, serverService *service.ServerService) *APIController {
	a := &APIController{
		BaseController:      BaseController{users: userService},
		userService:         userService,
		systemUpdateService: systemUpdateService,
		serverService:       serverService,
	}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	g.GET("/system-updates", a.getSystemUpdates)
	g.POST("/system-updates", a.checkAdmin, a.saveSystemUpdates)

	g.GET("/user", a.checkLogin, a.getUser)
	g.GET("/storage", a.checkLogin, a.getStorage)
	g.GET("/logs", a.checkAdmin, a.getLogs)
}

func (a *APIController) getUser(c *gin.Context) {
	rec := session.GetLoginUser(c)
	user, err := a.userService.GetUser(rec.UserID)
	if service.KindOf(err) == service.KindNotFound {
		// the account behind a still valid cookie is gone
		_ = session.ClearSession(c)
		pureJsonMsg(c, http.StatusUnauthorized, service.KindUnauthorized, I18nWeb(c, "login.required"))
		return
	} else if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.UserInfo{Id: user.Id, Username: user.Username, Role: string(user.Role)})
}

func (a *APIController) getSystemUpdates(c *gin.Context) {
	content, err := a.systemUpdateService.GetContent()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.SystemUpdates{Content: content})
}

func (a *APIController) saveSystemUpdates(c *gin.Context) {
	var form entity.SystemUpdates
	if !bindJSON(c, &form) {
		return
	}
	n, err := a.systemUpdateService.Replace(form.Content)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Infof("%s replaced system updates with %d lines", session.GetLoginUser(c).Username, n)
	jsonMsg(c, I18nWeb(c, "updates.saved", "Count=="+strconv.Itoa(n)))
}

func (a *APIController) getStorage(c *gin.Context) {
	usage, err := a.serverService.StorageUsage()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (a *APIController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}
	level := c.DefaultQuery("level", "info")
	c.JSON(http.StatusOK, entity.Logs{Logs: a.serverService.GetLogs(count, level)})
}
