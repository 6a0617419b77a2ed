package middleware

import (
	"net/http"

	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-gonic/gin"
)

// UserLookup loads the current state of an account.
type UserLookup interface {
	GetUser(id int) (*model.User, error)
}

// RoleRequired lets the request through only when the session holds one of
// roles. Everybody else, anonymous callers included, gets 403. With users set,
// the role is read from the stored account rather than the cookie, so a
// demotion or deletion takes effect immediately.
func RoleRequired(users UserLookup, roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		rec := session.GetLoginUser(c)
		if rec == nil {
			abortWithMsg(c, http.StatusForbidden, "forbidden", "login.adminRequired")
			return
		}
		role := rec.Role
		if users != nil {
			user, err := users.GetUser(rec.UserID)
			if err != nil || user == nil {
				abortWithMsg(c, http.StatusForbidden, "forbidden", "login.adminRequired")
				return
			}
			role = user.Role
		}
		if !allowed[role] {
			abortWithMsg(c, http.StatusForbidden, "forbidden", "login.adminRequired")
			return
		}
		c.Next()
	}
}
