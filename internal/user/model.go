package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	Email        *string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
