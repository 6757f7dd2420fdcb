// Package auth implements the built-in identity provider: registration,
// password login and logout with token revocation.
package auth

import "time"

// User is a credential record. It is separate from the public profile: the
// password hash never travels with profile reads.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterRequest carries a signup submission.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"required,max=200"`
	UserType string `json:"user_type" validate:"omitempty,oneof=citizen government"`
}

// LoginRequest carries a password login submission.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
