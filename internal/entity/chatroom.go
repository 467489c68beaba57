package entity

import "time"

// Chatroom pairs two users. The pair is stored with UserOneID < UserTwoID so the
// unique index covers both orderings.
type Chatroom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserOneID uint      `gorm:"not null;uniqueIndex:idx_chatrooms_pair,priority:1" json:"user_one_id"`
	UserOne   *User     `gorm:"foreignKey:UserOneID;constraint:OnDelete:CASCADE" json:"user_one,omitempty"`
	UserTwoID uint      `gorm:"not null;uniqueIndex:idx_chatrooms_pair,priority:2;index" json:"user_two_id"`
	UserTwo   *User     `gorm:"foreignKey:UserTwoID;constraint:OnDelete:CASCADE" json:"user_two,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderedPair returns the canonical storage order of two user ids.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Chatroom) HasParticipant(userID uint) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Chatroom) OtherParticipant(userID uint) uint {
	if c.UserOneID == userID {
		return c.UserTwoID
	}
	return c.UserOneID
}

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatroomID uint      `gorm:"not null;index:idx_messages_read_state,priority:1" json:"chatroom_id"`
	Chatroom   *Chatroom `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SenderID   uint      `gorm:"not null" json:"sender_id"`
	Sender     *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_read_state,priority:2" json:"receiver_id"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"default:false;index:idx_messages_read_state,priority:3" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
