package models

import "time"

// RoleUser is assigned when registration does not name a role.
const RoleUser = "USER"

// Column limits of the users table.
const (
	MaxUsernameLength = 80
	MaxRoleLength     = 50
)

// Account is a registered user. Username and ID never change after creation.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
