package reaction

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chattr.app/backend/internal/entity"
	notifDto "chattr.app/backend/internal/modules/notification/dto"
	notifService "chattr.app/backend/internal/modules/notification/service"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	reactionDto "chattr.app/backend/internal/modules/reaction/dto"
	reactionRepo "chattr.app/backend/internal/modules/reaction/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	userRepo "chattr.app/backend/internal/modules/user/repository"
	"chattr.app/backend/pkg/apperror"
	"gorm.io/gorm"
)

var errAlreadyReacted = apperror.Conflict("You have already reacted to this post.")

type ReactionService interface {
	React(ctx context.Context, userID, postID uint) (*reactionDto.ReactionResponse, error)
	GetReactions(ctx context.Context, postID uint) ([]reactionDto.ReactionResponse, error)
	RemoveReaction(ctx context.Context, userID, reactionID uint) error
}

type reactionService struct {
	repo                reactionRepo.ReactionRepository
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
	broadcaster         realtime.Broadcaster
}

func NewReactionService(repo reactionRepo.ReactionRepository, postRepo postRepo.PostRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService, broadcaster realtime.Broadcaster) ReactionService {
	return &reactionService{
		repo:                repo,
		postRepo:            postRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		broadcaster:         broadcaster,
	}
}

func (s *reactionService) React(ctx context.Context, userID, postID uint) (*reactionDto.ReactionResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post not found.")
	}

	existing, err := s.repo.FindByPostAndUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAlreadyReacted
	}

	reaction := &entity.Reaction{
		PostID: postID,
		UserID: userID,
		Type:   entity.ReactionLike,
	}
	if err := s.repo.Create(ctx, reaction); err != nil {
		// the unique index settles races the pre-check cannot see
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errAlreadyReacted
		}
		return nil, err
	}

	// 1. Recount and announce
	if likes, err := s.repo.CountLikes(ctx, postID); err != nil {
		log.Printf("Failed to count likes for post %d: %v", postID, err)
	} else {
		s.broadcaster.Broadcast(ctx, realtime.ReactionCreated(postID, likes))
	}

	// 2. Tell the owner
	actor, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load reactor %d: %v", userID, err)
	} else if _, err := s.notificationService.Notify(ctx, notifDto.NotifyInput{
		RecipientID: post.UserID,
		ActorID:     userID,
		PostID:      postID,
		Type:        entity.NotificationReaction,
		Message:     fmt.Sprintf("%s reacted to your post.", actor.FullName()),
	}); err != nil {
		log.Printf("Failed to notify owner of post %d: %v", postID, err)
	}

	reaction.User = actor
	resp := toResponse(reaction)
	return &resp, nil
}

func (s *reactionService) GetReactions(ctx context.Context, postID uint) ([]reactionDto.ReactionResponse, error) {
	reactions, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := make([]reactionDto.ReactionResponse, 0, len(reactions))
	for i := range reactions {
		out = append(out, toResponse(&reactions[i]))
	}
	return out, nil
}

func (s *reactionService) RemoveReaction(ctx context.Context, userID, reactionID uint) error {
	reaction, err := s.repo.FindForUser(ctx, reactionID, userID)
	if err != nil {
		return err
	}
	if reaction == nil {
		return apperror.NotFound("Reaction not found.")
	}

	if err := s.repo.Delete(ctx, reaction); err != nil {
		return err
	}

	if likes, err := s.repo.CountLikes(ctx, reaction.PostID); err != nil {
		log.Printf("Failed to count likes for post %d: %v", reaction.PostID, err)
	} else {
		s.broadcaster.Broadcast(ctx, realtime.ReactionRemoved(reaction.PostID, likes))
	}

	// withdraw the notification this reaction produced for the post owner
	post, err := s.postRepo.FindByID(ctx, reaction.PostID)
	if err != nil {
		log.Printf("Failed to load post %d for notification cleanup: %v", reaction.PostID, err)
		return nil
	}
	if post != nil {
		if err := s.notificationService.Remove(ctx, post.UserID, userID, post.ID, entity.NotificationReaction); err != nil {
			log.Printf("Failed to remove reaction notification on post %d: %v", post.ID, err)
		}
	}
	return nil
}

func toResponse(r *entity.Reaction) reactionDto.ReactionResponse {
	return reactionDto.ReactionResponse{
		ID:        r.ID,
		PostID:    r.PostID,
		UserID:    r.UserID,
		Type:      r.Type,
		User:      r.User.Summary(),
		CreatedAt: r.CreatedAt,
	}
}
