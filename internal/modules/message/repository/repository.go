package repository

import (
	"context"

	"chattr.app/backend/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	// FindChatroom returns nil when the chatroom does not exist.
	FindChatroom(ctx context.Context, id uint) (*entity.Chatroom, error)
	// FindChatroomByPair matches either ordering of the two users.
	FindChatroomByPair(ctx context.Context, a, b uint) (*entity.Chatroom, error)
	// CreateChatroomIfAbsent reports false when the pair already had a row.
	CreateChatroomIfAbsent(ctx context.Context, room *entity.Chatroom) (bool, error)
	ListChatrooms(ctx context.Context, userID uint) ([]entity.Chatroom, error)
	LastMessages(ctx context.Context, chatroomIDs []uint) (map[uint]*entity.Message, error)
	UnreadCounts(ctx context.Context, chatroomIDs []uint, receiverID uint) (map[uint]int64, error)

	CreateMessage(ctx context.Context, msg *entity.Message) error
	FindMessage(ctx context.Context, id uint) (*entity.Message, error)
	ListMessages(ctx context.Context, chatroomID, receiverID uint, unreadOnly bool, offset, limit int) ([]entity.Message, int64, error)
	MarkRead(ctx context.Context, chatroomID, receiverID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) FindChatroom(ctx context.Context, id uint) (*entity.Chatroom, error) {
	var rooms []entity.Chatroom
	if err := r.db.WithContext(ctx).
		Preload("UserOne").
		Preload("UserTwo").
		Where("id = ?", id).
		Limit(1).
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}
	return &rooms[0], nil
}

func (r *messageRepository) FindChatroomByPair(ctx context.Context, a, b uint) (*entity.Chatroom, error) {
	var rooms []entity.Chatroom
	if err := r.db.WithContext(ctx).
		Preload("UserOne").
		Preload("UserTwo").
		Where("(user_one_id = ? AND user_two_id = ?) OR (user_one_id = ? AND user_two_id = ?)", a, b, b, a).
		Limit(1).
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}
	return &rooms[0], nil
}

func (r *messageRepository) CreateChatroomIfAbsent(ctx context.Context, room *entity.Chatroom) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(room)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *messageRepository) ListChatrooms(ctx context.Context, userID uint) ([]entity.Chatroom, error) {
	var rooms []entity.Chatroom
	err := r.db.WithContext(ctx).
		Preload("UserOne").
		Preload("UserTwo").
		Where("user_one_id = ? OR user_two_id = ?", userID, userID).
		Find(&rooms).Error
	return rooms, err
}

func (r *messageRepository) LastMessages(ctx context.Context, chatroomIDs []uint) (map[uint]*entity.Message, error) {
	out := make(map[uint]*entity.Message, len(chatroomIDs))
	if len(chatroomIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&entity.Message{}).
		Select("MAX(id)").
		Where("chatroom_id IN ?", chatroomIDs).
		Group("chatroom_id")

	var messages []entity.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("id IN (?)", latest).
		Find(&messages).Error; err != nil {
		return nil, err
	}

	for i := range messages {
		out[messages[i].ChatroomID] = &messages[i]
	}
	return out, nil
}

func (r *messageRepository) UnreadCounts(ctx context.Context, chatroomIDs []uint, receiverID uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(chatroomIDs))
	if len(chatroomIDs) == 0 {
		return out, nil
	}

	type countRow struct {
		ChatroomID uint
		Total      int64
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Select("chatroom_id, COUNT(*) AS total").
		Where("chatroom_id IN ? AND receiver_id = ? AND is_read = ?", chatroomIDs, receiverID, false).
		Group("chatroom_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ChatroomID] = row.Total
	}
	return out, nil
}

func (r *messageRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindMessage(ctx context.Context, id uint) (*entity.Message, error) {
	var messages []entity.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("id = ?", id).
		Limit(1).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

func (r *messageRepository) ListMessages(ctx context.Context, chatroomID, receiverID uint, unreadOnly bool, offset, limit int) ([]entity.Message, int64, error) {
	var messages []entity.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Message{}).Where("chatroom_id = ?", chatroomID)
	if unreadOnly {
		query = query.Where("receiver_id = ? AND is_read = ?", receiverID, false)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Sender").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, chatroomID, receiverID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("chatroom_id = ? AND receiver_id = ? AND is_read = ?", chatroomID, receiverID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
