package dto

import "time"

type SharePostRequest struct {
	ShareCaption *string `json:"share_caption" binding:"omitempty,max=1000"`
}

type ShareResponse struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	OriginalPostID uint      `json:"original_post_id"`
	Caption        *string   `json:"caption"`
	PostID         uint      `json:"post_id"` // the companion post carrying the share in feeds
	CreatedAt      time.Time `json:"created_at"`
}
