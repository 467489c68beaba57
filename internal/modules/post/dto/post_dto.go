package dto

import (
	"time"

	"chattr.app/backend/internal/entity"
	commonDto "chattr.app/backend/pkg/dto"
)

type CreatePostRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type OriginalPostResponse struct {
	ID        uint                  `json:"id"`
	Content   string                `json:"content"`
	CreatedAt time.Time             `json:"created_at"`
	User      commonDto.UserSummary `json:"user"`
}

type PostResponse struct {
	ID             uint                  `json:"id"`
	UserID         uint                  `json:"user_id"`
	Content        string                `json:"content"`
	IsShared       bool                  `json:"is_shared"`
	ShareID        *uint                 `json:"share_id"`
	User           commonDto.UserSummary `json:"user"`
	LikesCount     int64                 `json:"likesCount"`
	CommentCount   int64                 `json:"commentCount"`
	ShareCount     int64                 `json:"shareCount"`
	LikedByUser    bool                  `json:"likedByUser"`
	UserReactionID *uint                 `json:"user_reaction_id"`
	OriginalPost   *OriginalPostResponse `json:"original_post,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// PostStats are the per viewer aggregates of one post.
type PostStats struct {
	LikesCount     int64
	CommentCount   int64
	ShareCount     int64
	UserReactionID *uint
}

func NewOriginalPostResponse(p *entity.Post) *OriginalPostResponse {
	if p == nil {
		return nil
	}
	return &OriginalPostResponse{
		ID:        p.ID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		User:      p.User.Summary(),
	}
}
