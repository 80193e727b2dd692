package dto

import (
	"time"

	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// RegisterRequest is the account registration request (HTTP).
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"` // bcrypt limit is 72 bytes
}

// LoginRequest is the login request (HTTP).
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the login response (HTTP).
type LoginResponse struct {
	Token  string        `json:"token"`
	Expire string        `json:"expire"`
	User   *UserResponse `json:"user"`
}

// UserResponse is the account info response (HTTP).
type UserResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ToUserResponse converts entity.User to UserResponse DTO.
func ToUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		lastLogin := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &lastLogin
	}
	return resp
}
