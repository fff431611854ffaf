package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	UUID         uuid.UUID `json:"id" db:"uuid"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        []Role    `json:"roles" db:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Role string

const RoleUser Role = "user"
const RoleAdmin Role = "admin"

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
