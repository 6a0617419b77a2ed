// Package session stores the logged-in user in the signed session cookie.
package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/filedock/filedock/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName is the name of the session cookie.
const CookieName = "filedock"

const loginUser = "LOGIN_USER"

// Record is what the cookie carries for a logged-in user.
type Record struct {
	UserID   int
	Username string
	Role     model.Role
	LoggedIn bool
	Expiry   time.Time
}

// IsAdmin reports whether the record belongs to an administrator.
func (r *Record) IsAdmin() bool {
	return r != nil && r.Role == model.RoleAdmin
}

func init() {
	gob.Register(Record{})
}

// SetLoginUser starts a session for user that expires after maxAge. secure
// marks the cookie HTTPS-only.
func SetLoginUser(c *gin.Context, user *model.User, maxAge time.Duration, secure bool) error {
	s := sessions.Default(c)
	s.Set(loginUser, Record{
		UserID:   user.Id,
		Username: user.Username,
		Role:     user.Role,
		LoggedIn: true,
		Expiry:   time.Now().Add(maxAge),
	})
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}

// GetLoginUser returns the session record, or nil when nobody is logged in or
// the record has expired.
func GetLoginUser(c *gin.Context) *Record {
	s := sessions.Default(c)
	obj := s.Get(loginUser)
	if obj == nil {
		return nil
	}
	r, ok := obj.(Record)
	if !ok || !r.LoggedIn || time.Now().After(r.Expiry) {
		return nil
	}
	return &r
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

// ClearSession removes the record and expires the cookie.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return s.Save()
}
