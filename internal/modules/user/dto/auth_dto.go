package dto

import (
	"chattr.app/backend/internal/entity"
	commonDto "chattr.app/backend/pkg/dto"
)

type RegisterInput struct {
	FirstName string  `json:"first_name" binding:"required,max=50"`
	LastName  string  `json:"last_name" binding:"required,max=50"`
	Email     string  `json:"email" binding:"required,email,max=100"`
	Password  string  `json:"password" binding:"required,min=6"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	User      *entity.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
}

type UserListQuery struct {
	commonDto.PageQuery
	Search string `form:"search" binding:"omitempty,max=100"`
}
