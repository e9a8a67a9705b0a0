package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a signed-in learner. Role flags gate bank publishing.
type Account struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Instructor   bool       `json:"instructor"`
	Admin        bool       `json:"admin"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Roles returns the role names carried in tokens.
func (a Account) Roles() []string {
	roles := []string{}
	if a.Instructor {
		roles = append(roles, RoleInstructor)
	}
	if a.Admin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	DisplayName string `json:"display_name" binding:"required,min=2,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the payload for account authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login or registration.
type LoginResponse struct {
	Token   string  `json:"token"`
	Account Account `json:"account"`
}
