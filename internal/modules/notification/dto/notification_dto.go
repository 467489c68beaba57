package dto

import "chattr.app/backend/internal/entity"

// NotifyInput describes a notification about to be created for RecipientID.
type NotifyInput struct {
	RecipientID uint
	ActorID     uint
	PostID      uint
	Type        entity.NotificationType
	Message     string
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
