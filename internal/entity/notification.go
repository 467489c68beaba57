package entity

import "time"

type NotificationType string

const (
	NotificationReaction NotificationType = "reaction"
	NotificationComment  NotificationType = "comment"
	NotificationShare    NotificationType = "share"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"` // recipient
	User      *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ActorID   uint             `gorm:"not null;index" json:"actor_id"` // User who triggered the notification
	Actor     *User            `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    uint             `gorm:"not null;index" json:"post_id"`
	Post      *Post            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Type      NotificationType `gorm:"size:20;not null" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
