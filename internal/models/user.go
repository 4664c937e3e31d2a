package models

import (
	"time"
)

// Account roles
const (
	RoleTenant = "tenant"
	RoleOwner  = "owner"
	RoleBroker = "broker"
	RoleAdmin  = "admin"
)

// User represents an account on the marketplace
type User struct {
	ID           int64     `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never send to client
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRegistration contains data needed for user registration.
// Admins are provisioned out of band, so they cannot register here.
type UserRegistration struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Role      string `json:"role" binding:"omitempty,oneof=tenant owner broker"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is what we return to the account owner
type UserResponse struct {
	ID        int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is the public identity shown to other users
type UserSummary struct {
	ID        int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

// ToResponse strips the password hash
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Summary returns the fields another participant may see
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}
