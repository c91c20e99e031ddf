package dto

import (
	"github.com/studyloop/backend/internal/entity"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=admin instructor student"`
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	User        *entity.User    `json:"user"`
	Role        *entity.Role    `json:"role"`
	Profile     *entity.Profile `json:"profile"`
	SearchToken string          `json:"search_token,omitempty"`
}
