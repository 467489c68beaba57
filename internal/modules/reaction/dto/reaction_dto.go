package dto

import (
	"time"

	commonDto "chattr.app/backend/pkg/dto"
)

type ReactionResponse struct {
	ID        uint                  `json:"id"`
	PostID    uint                  `json:"post_id"`
	UserID    uint                  `json:"user_id"`
	Type      string                `json:"type"`
	User      commonDto.UserSummary `json:"user"`
	CreatedAt time.Time             `json:"created_at"`
}
