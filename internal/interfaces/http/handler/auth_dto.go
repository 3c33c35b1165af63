package handler

import (
	"time"

	identityapp "github.com/invoicer/backend/internal/application/identity"
)

// RegisterRequest represents the request body for seller registration
type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	DeviceName           string `json:"device_name" binding:"max=255"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	DeviceName string `json:"device_name" binding:"max=255"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password" binding:"required"`
	Password             string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

// AuthResponse is returned by register, login and password change
type AuthResponse struct {
	User      identityapp.UserResponse `json:"user"`
	Token     string                   `json:"token"`
	ExpiresAt time.Time                `json:"expires_at"`
}

func toAuthResponse(r *identityapp.AuthResult) AuthResponse {
	return AuthResponse{
		User:      r.User,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
	}
}
