package realtime

import (
	"time"

	"chattr.app/backend/internal/entity"
	"chattr.app/backend/pkg/dto"
)

type EventKind string

const (
	MessageSentEvent         EventKind = "message.sent"
	MessageReadEvent         EventKind = "message.read"
	ChatroomCreatedEvent     EventKind = "chatroom.created"
	CommentCreatedEvent      EventKind = "comment.created"
	CommentRemovedEvent      EventKind = "comment.removed"
	ReactionCreatedEvent     EventKind = "reaction.created"
	ReactionRemovedEvent     EventKind = "reaction.removed"
	NotificationCreatedEvent EventKind = "notification.created"
	NotificationReadEvent    EventKind = "notification.read"
	NotificationRemovedEvent EventKind = "notification.removed"
)

// Event is one named payload addressed to one or more channels.
type Event struct {
	Kind     EventKind
	Channels []string
	Payload  interface{}

	// ExceptSocket names the originating connection, which does not get its own echo.
	ExceptSocket string
}

type MessageSentPayload struct {
	ID         uint            `json:"id"`
	ChatroomID uint            `json:"chatroom_id"`
	SenderID   uint            `json:"sender_id"`
	ReceiverID uint            `json:"receiver_id"`
	Content    string          `json:"content"`
	IsRead     bool            `json:"is_read"`
	CreatedAt  time.Time       `json:"created_at"`
	Sender     dto.UserSummary `json:"sender"`
	Receiver   dto.UserSummary `json:"receiver"`
}

type MessageReadPayload struct {
	ChatroomID uint   `json:"chatroom_id"`
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"`
	Status     string `json:"status"`
}

type ChatroomPayload struct {
	ID        uint            `json:"id"`
	UserOneID uint            `json:"user_one_id"`
	UserTwoID uint            `json:"user_two_id"`
	UserOne   dto.UserSummary `json:"user_one"`
	UserTwo   dto.UserSummary `json:"user_two"`
	CreatedAt time.Time       `json:"created_at"`
}

type ChatroomCreatedPayload struct {
	Chatroom ChatroomPayload `json:"chatroom"`
}

type CommentPayload struct {
	ID        uint            `json:"id"`
	PostID    uint            `json:"post_id"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	User      dto.UserSummary `json:"user"`
}

type CommentCreatedPayload struct {
	Comment      CommentPayload `json:"comment"`
	CommentCount int64          `json:"commentCount"`
}

type CommentRemovedPayload struct {
	CommentID    uint  `json:"comment_id"`
	PostID       uint  `json:"post_id"`
	CommentCount int64 `json:"commentCount"`
}

type ReactionCountPayload struct {
	PostID     uint  `json:"post_id"`
	LikesCount int64 `json:"likesCount"`
}

type NotificationPayload struct {
	Notification *entity.Notification `json:"notification"`
}

// MessageSent fans out to both participants. Sender and Receiver should be preloaded.
func MessageSent(msg *entity.Message) Event {
	return Event{
		Kind:     MessageSentEvent,
		Channels: []string{UserChannel(msg.SenderID), UserChannel(msg.ReceiverID)},
		Payload: MessageSentPayload{
			ID:         msg.ID,
			ChatroomID: msg.ChatroomID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Content:    msg.Content,
			IsRead:     msg.IsRead,
			CreatedAt:  msg.CreatedAt,
			Sender:     summaryOrID(msg.Sender, msg.SenderID),
			Receiver:   summaryOrID(msg.Receiver, msg.ReceiverID),
		},
	}
}

// MessageRead tells senderID that readerID has read the conversation.
func MessageRead(chatroomID, senderID, readerID uint) Event {
	return Event{
		Kind:     MessageReadEvent,
		Channels: []string{UserChannel(senderID), UserChannel(readerID)},
		Payload: MessageReadPayload{
			ChatroomID: chatroomID,
			SenderID:   senderID,
			ReceiverID: readerID,
			Status:     "read",
		},
	}
}

func ChatroomCreated(room *entity.Chatroom) Event {
	return Event{
		Kind:     ChatroomCreatedEvent,
		Channels: []string{UserChannel(room.UserOneID), UserChannel(room.UserTwoID)},
		Payload: ChatroomCreatedPayload{
			Chatroom: ChatroomPayload{
				ID:        room.ID,
				UserOneID: room.UserOneID,
				UserTwoID: room.UserTwoID,
				UserOne:   summaryOrID(room.UserOne, room.UserOneID),
				UserTwo:   summaryOrID(room.UserTwo, room.UserTwoID),
				CreatedAt: room.CreatedAt,
			},
		},
	}
}

func CommentCreated(comment *entity.Comment, commentCount int64) Event {
	return Event{
		Kind:     CommentCreatedEvent,
		Channels: []string{CommentsChannel(comment.PostID)},
		Payload: CommentCreatedPayload{
			Comment: CommentPayload{
				ID:        comment.ID,
				PostID:    comment.PostID,
				Content:   comment.Content,
				CreatedAt: comment.CreatedAt,
				User:      summaryOrID(comment.User, comment.UserID),
			},
			CommentCount: commentCount,
		},
	}
}

func CommentRemoved(commentID, postID uint, commentCount int64) Event {
	return Event{
		Kind:     CommentRemovedEvent,
		Channels: []string{CommentsChannel(postID)},
		Payload: CommentRemovedPayload{
			CommentID:    commentID,
			PostID:       postID,
			CommentCount: commentCount,
		},
	}
}

func ReactionCreated(postID uint, likesCount int64) Event {
	return Event{
		Kind:     ReactionCreatedEvent,
		Channels: []string{ReactionsChannel},
		Payload:  ReactionCountPayload{PostID: postID, LikesCount: likesCount},
	}
}

func ReactionRemoved(postID uint, likesCount int64) Event {
	return Event{
		Kind:     ReactionRemovedEvent,
		Channels: []string{ReactionsChannel},
		Payload:  ReactionCountPayload{PostID: postID, LikesCount: likesCount},
	}
}

func NotificationCreated(n *entity.Notification) Event {
	return notificationEvent(NotificationCreatedEvent, n)
}

func NotificationRead(n *entity.Notification) Event {
	return notificationEvent(NotificationReadEvent, n)
}

func NotificationRemoved(n *entity.Notification) Event {
	return notificationEvent(NotificationRemovedEvent, n)
}

func notificationEvent(kind EventKind, n *entity.Notification) Event {
	return Event{
		Kind:     kind,
		Channels: []string{NotificationsChannel(n.UserID)},
		Payload:  NotificationPayload{Notification: n},
	}
}

func summaryOrID(u *entity.User, id uint) dto.UserSummary {
	if u == nil {
		return dto.UserSummary{ID: id}
	}
	return u.Summary()
}
