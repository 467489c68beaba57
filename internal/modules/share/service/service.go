package share

import (
	"context"
	"fmt"
	"log"

	"chattr.app/backend/internal/entity"
	notifDto "chattr.app/backend/internal/modules/notification/dto"
	notifService "chattr.app/backend/internal/modules/notification/service"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	shareDto "chattr.app/backend/internal/modules/share/dto"
	userRepo "chattr.app/backend/internal/modules/user/repository"
	"chattr.app/backend/pkg/apperror"
	"chattr.app/backend/pkg/sanitize"
)

type ShareService interface {
	SharePost(ctx context.Context, userID, postID uint, req shareDto.SharePostRequest) (*shareDto.ShareResponse, error)
}

type shareService struct {
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
}

func NewShareService(postRepo postRepo.PostRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService) ShareService {
	return &shareService{
		postRepo:            postRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

func (s *shareService) SharePost(ctx context.Context, userID, postID uint, req shareDto.SharePostRequest) (*shareDto.ShareResponse, error) {
	original, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, apperror.NotFound("Original post not found.")
	}

	var caption *string
	if req.ShareCaption != nil {
		if clean := sanitize.Text(*req.ShareCaption); clean != "" {
			caption = &clean
		}
	}

	share := &entity.Share{
		UserID:         userID,
		OriginalPostID: original.ID,
		Caption:        caption,
	}
	companion := &entity.Post{UserID: userID}
	if caption != nil {
		companion.Content = *caption
	}
	if err := s.postRepo.CreateShare(ctx, share, companion); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load sharer %d: %v", userID, err)
	} else if actor != nil {
		if _, err := s.notificationService.Notify(ctx, notifDto.NotifyInput{
			RecipientID: original.UserID,
			ActorID:     userID,
			PostID:      original.ID,
			Type:        entity.NotificationShare,
			Message:     fmt.Sprintf("%s shared your post.", actor.FullName()),
		}); err != nil {
			log.Printf("Failed to notify owner of post %d: %v", original.ID, err)
		}
	}

	return &shareDto.ShareResponse{
		ID:             share.ID,
		UserID:         share.UserID,
		OriginalPostID: share.OriginalPostID,
		Caption:        share.Caption,
		PostID:         companion.ID,
		CreatedAt:      share.CreatedAt,
	}, nil
}
