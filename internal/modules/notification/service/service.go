package service

import (
	"context"
	"log"

	"chattr.app/backend/internal/entity"
	"chattr.app/backend/internal/modules/notification/dto"
	notifRepo "chattr.app/backend/internal/modules/notification/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/apperror"
	commonDto "chattr.app/backend/pkg/dto"
)

type NotificationService interface {
	// Notify stores and announces a notification. Self notifications are skipped and return nil.
	Notify(ctx context.Context, input dto.NotifyInput) (*entity.Notification, error)
	Remove(ctx context.Context, recipientID, actorID, postID uint, notifType entity.NotificationType) error
	GetNotifications(ctx context.Context, userID uint, query commonDto.PageQuery) (commonDto.Page[entity.Notification], error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	// MarkAsRead reports whether the notification was unread before the call.
	MarkAsRead(ctx context.Context, userID, id uint) (*entity.Notification, bool, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	broadcaster realtime.Broadcaster
}

func NewNotificationService(repo notifRepo.NotificationRepository, broadcaster realtime.Broadcaster) NotificationService {
	return &notificationService{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

func (s *notificationService) Notify(ctx context.Context, input dto.NotifyInput) (*entity.Notification, error) {
	if input.RecipientID == input.ActorID {
		return nil, nil
	}

	notification := &entity.Notification{
		UserID:  input.RecipientID,
		ActorID: input.ActorID,
		PostID:  input.PostID,
		Type:    input.Type,
		Message: input.Message,
	}

	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	// 2. Announce to the recipient
	s.broadcaster.Broadcast(ctx, realtime.NotificationCreated(notification))

	return notification, nil
}

func (s *notificationService) Remove(ctx context.Context, recipientID, actorID, postID uint, notifType entity.NotificationType) error {
	removed, err := s.repo.DeleteMatching(ctx, recipientID, actorID, postID, notifType)
	if err != nil {
		return err
	}
	for i := range removed {
		s.broadcaster.Broadcast(ctx, realtime.NotificationRemoved(&removed[i]))
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uint, query commonDto.PageQuery) (commonDto.Page[entity.Notification], error) {
	page := query.Normalize(commonDto.DefaultPageSize)
	notifications, total, err := s.repo.List(ctx, userID, page.UnreadOnly(), page.Offset(), page.PageSize)
	if err != nil {
		return commonDto.Page[entity.Notification]{}, err
	}
	return commonDto.NewPage(notifications, page, total), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uint) (*entity.Notification, bool, error) {
	notification, err := s.repo.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, false, err
	}
	// someone else's notification looks exactly like a missing one
	if notification == nil {
		return nil, false, apperror.NotFound("Notification not found.")
	}

	if notification.IsRead {
		return notification, false, nil
	}

	transitioned, err := s.repo.MarkAsRead(ctx, notification.ID)
	if err != nil {
		return nil, false, err
	}
	notification.IsRead = true

	if transitioned {
		s.broadcaster.Broadcast(ctx, realtime.NotificationRead(notification))
	}
	return notification, transitioned, nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) (int, error) {
	ids, err := s.repo.UnreadIDs(ctx, userID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		transitioned, err := s.repo.MarkAsRead(ctx, id)
		if err != nil {
			return updated, err
		}
		if !transitioned {
			// a concurrent call got there first and already announced it
			continue
		}
		updated++

		notification, err := s.repo.FindForUser(ctx, id, userID)
		if err != nil || notification == nil {
			log.Printf("Failed to reload notification %d after marking read: %v", id, err)
			continue
		}
		s.broadcaster.Broadcast(ctx, realtime.NotificationRead(notification))
	}
	return updated, nil
}
