package dto

import (
	"time"

	commonDto "chattr.app/backend/pkg/dto"
)

type ChatroomListQuery struct {
	Filter string `form:"filter" binding:"omitempty,oneof=all unread"`
}

type CreateChatroomRequest struct {
	ReceiverID uint `json:"receiver_id" binding:"required"`
}

// SendMessageRequest without ChatroomID starts a conversation, creating the chatroom when needed.
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	ChatroomID *uint  `json:"chatroom_id"`
	Content    string `json:"content" binding:"required,max=2000"`
}

type MessageResponse struct {
	ID         uint                  `json:"id"`
	ChatroomID uint                  `json:"chatroom_id"`
	SenderID   uint                  `json:"sender_id"`
	ReceiverID uint                  `json:"receiver_id"`
	Content    string                `json:"content"`
	IsRead     bool                  `json:"is_read"`
	Sender     commonDto.UserSummary `json:"sender"`
	CreatedAt  time.Time             `json:"created_at"`
}

type ChatroomResponse struct {
	ID          uint                  `json:"id"`
	UserOneID   uint                  `json:"user_one_id"`
	UserTwoID   uint                  `json:"user_two_id"`
	UserOne     commonDto.UserSummary `json:"user_one"`
	UserTwo     commonDto.UserSummary `json:"user_two"`
	LastMessage *MessageResponse      `json:"last_message"`
	UnreadCount int64                 `json:"unread_count"`
	CreatedAt   time.Time             `json:"created_at"`
}

type CreateChatroomResponse struct {
	Chatroom    ChatroomResponse `json:"chatroom"`
	NewChatroom bool             `json:"new_chatroom"`
}

type SendMessageResponse struct {
	Chatroom    ChatroomResponse `json:"chatroom"`
	Message     MessageResponse  `json:"message"`
	NewChatroom bool             `json:"new_chatroom"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
