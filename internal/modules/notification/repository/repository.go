package repository

import (
	"context"

	"chattr.app/backend/internal/entity"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	// FindForUser returns nil when id does not exist or belongs to someone else.
	FindForUser(ctx context.Context, id, userID uint) (*entity.Notification, error)
	List(ctx context.Context, userID uint, unreadOnly bool, offset, limit int) ([]entity.Notification, int64, error)
	UnreadIDs(ctx context.Context, userID uint) ([]uint, error)
	// MarkAsRead reports whether the row actually moved from unread to read.
	MarkAsRead(ctx context.Context, id uint) (bool, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	// DeleteMatching removes the notifications an actor caused on a post and returns them.
	DeleteMatching(ctx context.Context, recipientID, actorID, postID uint, notifType entity.NotificationType) ([]entity.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindForUser(ctx context.Context, id, userID uint) (*entity.Notification, error) {
	var notifications []entity.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	if len(notifications) == 0 {
		return nil, nil
	}
	return &notifications[0], nil
}

func (r *notificationRepository) List(ctx context.Context, userID uint, unreadOnly bool, offset, limit int) ([]entity.Notification, int64, error) {
	var notifications []entity.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at desc").Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) UnreadIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id uint) (bool, error) {
	// the is_read guard makes concurrent callers agree on who did the transition
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected == 1, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

func (r *notificationRepository) DeleteMatching(ctx context.Context, recipientID, actorID, postID uint, notifType entity.NotificationType) ([]entity.Notification, error) {
	var removed []entity.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND actor_id = ? AND post_id = ? AND type = ?", recipientID, actorID, postID, notifType).
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(removed))
		for _, n := range removed {
			ids = append(ids, n.ID)
		}
		return tx.Where("id IN ?", ids).Delete(&entity.Notification{}).Error
	})
	return removed, err
}
