package domain

import (
	"regexp"
	"time"
)

var (
	userIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_.]{4,20}$`)
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9_.!]{6,30}$`)
)

// User represents a user in the system. The ID is chosen by the user at
// registration and is the key every note and permission row hangs off.
type User struct {
	ID           string `gorm:"primaryKey;size:20"`
	Name         string `gorm:"size:100"`
	Password     string `gorm:"-"` // input only, not stored in db
	PasswordHash string
	TokenVersion uint64 `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser represents a user without sensitive information
type SafeUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSafeUser converts a User to a SafeUser
func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// ValidUserID reports whether an id has the allowed shape:
// 4-20 chars, alphanumeric plus '.' and '_'.
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// ValidPassword reports whether a raw password has the allowed shape.
func ValidPassword(pw string) bool {
	return passwordPattern.MatchString(pw)
}
