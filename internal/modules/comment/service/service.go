package comment

import (
	"context"
	"fmt"
	"log"

	"chattr.app/backend/internal/entity"
	commentDto "chattr.app/backend/internal/modules/comment/dto"
	commentRepo "chattr.app/backend/internal/modules/comment/repository"
	notifDto "chattr.app/backend/internal/modules/notification/dto"
	notifService "chattr.app/backend/internal/modules/notification/service"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/apperror"
	"chattr.app/backend/pkg/sanitize"
)

type CommentService interface {
	CreateComment(ctx context.Context, userID, postID uint, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	GetComments(ctx context.Context, postID uint) ([]commentDto.CommentResponse, error)
	DeleteComment(ctx context.Context, userID, commentID uint) error
}

type commentService struct {
	repo                commentRepo.CommentRepository
	postRepo            postRepo.PostRepository
	notificationService notifService.NotificationService
	broadcaster         realtime.Broadcaster
}

func NewCommentService(repo commentRepo.CommentRepository, postRepo postRepo.PostRepository, notificationService notifService.NotificationService, broadcaster realtime.Broadcaster) CommentService {
	return &commentService{
		repo:                repo,
		postRepo:            postRepo,
		notificationService: notificationService,
		broadcaster:         broadcaster,
	}
}

func (s *commentService) CreateComment(ctx context.Context, userID, postID uint, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post not found.")
	}

	content := sanitize.Text(req.Content)
	if content == "" {
		return nil, apperror.Validation("The content field is required.")
	}

	comment := &entity.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// reload with the author for the response and the event payload
	stored, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		comment = stored
	}

	if count, err := s.repo.CountByPost(ctx, postID); err != nil {
		log.Printf("Failed to count comments for post %d: %v", postID, err)
	} else {
		s.broadcaster.Broadcast(ctx, realtime.CommentCreated(comment, count))
	}

	if comment.User != nil {
		if _, err := s.notificationService.Notify(ctx, notifDto.NotifyInput{
			RecipientID: post.UserID,
			ActorID:     userID,
			PostID:      postID,
			Type:        entity.NotificationComment,
			Message:     fmt.Sprintf("%s commented on your post.", comment.User.FullName()),
		}); err != nil {
			log.Printf("Failed to notify owner of post %d: %v", postID, err)
		}
	}

	resp := toResponse(comment)
	return &resp, nil
}

func (s *commentService) GetComments(ctx context.Context, postID uint) ([]commentDto.CommentResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post not found.")
	}

	comments, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := make([]commentDto.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, toResponse(&comments[i]))
	}
	return out, nil
}

func (s *commentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperror.NotFound("Comment not found.")
	}
	if comment.UserID != userID {
		return apperror.Forbidden("You are not authorized to delete this comment.")
	}

	if err := s.repo.Delete(ctx, comment); err != nil {
		return err
	}

	count, err := s.repo.CountByPost(ctx, comment.PostID)
	if err != nil {
		log.Printf("Failed to count comments for post %d: %v", comment.PostID, err)
		return nil
	}
	s.broadcaster.Broadcast(ctx, realtime.CommentRemoved(comment.ID, comment.PostID, count))
	return nil
}

func toResponse(c *entity.Comment) commentDto.CommentResponse {
	return commentDto.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		User:      c.User.Summary(),
		CreatedAt: c.CreatedAt,
	}
}
