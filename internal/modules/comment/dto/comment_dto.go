package dto

import (
	"time"

	commonDto "chattr.app/backend/pkg/dto"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=500"`
}

type CommentResponse struct {
	ID        uint                  `json:"id"`
	PostID    uint                  `json:"post_id"`
	UserID    uint                  `json:"user_id"`
	Content   string                `json:"content"`
	User      commonDto.UserSummary `json:"user"`
	CreatedAt time.Time             `json:"created_at"`
}
