package models

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Name      string    `json:"name" gorm:"uniqueIndex:ux_users_name;not null;size:191"`
	Email     string    `json:"email" gorm:"uniqueIndex:ux_users_email;not null;size:191"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the shallow copy of a user embedded in friend lists and requests.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NormalizeEmail trims and lowercases an address; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail derives a display name from the local part of an address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	return local
}
