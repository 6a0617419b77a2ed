// Package controller provides the HTTP handlers of the filedock API.
package controller

import (
	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/web/locale"
	"github.com/filedock/filedock/web/middleware"

	"github.com/gin-gonic/gin"
)

// BaseController carries the access checks shared by all controllers.
type BaseController struct {
	privateRead bool
	users       middleware.UserLookup
}

// checkLogin aborts with 401 unless the session is logged in.
func (a *BaseController) checkLogin(c *gin.Context) {
	middleware.LoginRequired()(c)
}

// checkAdmin aborts with 403 unless the session belongs to an admin.
func (a *BaseController) checkAdmin(c *gin.Context) {
	middleware.RoleRequired(a.users, model.RoleAdmin)(c)
}

// checkRead guards file reads. They are public unless privateRead is set.
func (a *BaseController) checkRead(c *gin.Context) {
	middleware.LoginRequiredIf(a.privateRead)(c)
}

// I18nWeb retrieves a message in the request's language.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.Localize(locale.FromContext(c), name, params...)
}
