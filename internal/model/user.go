package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorisation level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a storefront account.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateUserRequest is the admin payload for creating an account.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user admin"`
}

// RoleUpdateRequest changes a user's role.
type RoleUpdateRequest struct {
	Role Role `json:"role" validate:"required,oneof=user admin"`
}

// ActiveUpdateRequest enables or disables an account.
type ActiveUpdateRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
