// Package model contains the gorm models persisted by filedock.
package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	Id             int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string `json:"username" gorm:"uniqueIndex;not null"`
	Password       string `json:"-" gorm:"not null"`
	Role           Role   `json:"role" gorm:"not null;default:user"`
	TwoFactorToken string `json:"-"`
}

// IsAdmin reports whether the user may manage announcements and read server logs.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SystemUpdate is one line of the admin announcement feed.
type SystemUpdate struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
