// Package dto defines request and response shapes for the HTTP API.
package dto

import (
	"time"

	"posada/internal/domain/auth"
)

// LoginRequest is the credentials payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name,omitempty"`
	Roles    []string `json:"roles"`
}

// NewLoginResponse assembles the login payload.
func NewLoginResponse(pair *auth.TokenPair, user *auth.User) LoginResponse {
	return LoginResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresAt:   pair.ExpiresAt,
		User: UserResponse{
			ID:       user.ID.String(),
			Email:    user.Email,
			FullName: user.FullName,
			Roles:    user.Roles,
		},
	}
}
