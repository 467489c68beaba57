package post

import (
	"context"
	"time"

	"chattr.app/backend/internal/entity"
	postDto "chattr.app/backend/internal/modules/post/dto"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	"chattr.app/backend/pkg/apperror"
	commonDto "chattr.app/backend/pkg/dto"
	"chattr.app/backend/pkg/ratelimiter"
	"chattr.app/backend/pkg/sanitize"
	"github.com/redis/go-redis/v9"
)

const createPostAction = "create_post"

type PostService interface {
	ListPosts(ctx context.Context, viewerID uint, query commonDto.PageQuery) (commonDto.Page[postDto.PostResponse], error)
	CreatePost(ctx context.Context, userID uint, req postDto.CreatePostRequest) (*postDto.PostResponse, error)
	GetPostByID(ctx context.Context, viewerID, postID uint) (*postDto.PostResponse, error)
	DeletePost(ctx context.Context, userID, postID uint) error
}

type postService struct {
	postRepo    postRepo.PostRepository
	redisClient *redis.Client
	cooldown    time.Duration
}

// NewPostService rate limits creation to one post per cooldown and user. A zero cooldown or nil client disables it.
func NewPostService(postRepo postRepo.PostRepository, redisClient *redis.Client, cooldown time.Duration) PostService {
	return &postService{
		postRepo:    postRepo,
		redisClient: redisClient,
		cooldown:    cooldown,
	}
}

func (s *postService) ListPosts(ctx context.Context, viewerID uint, query commonDto.PageQuery) (commonDto.Page[postDto.PostResponse], error) {
	page := query.Normalize(commonDto.DefaultPageSize)

	posts, total, err := s.postRepo.List(ctx, page.Offset(), page.PageSize)
	if err != nil {
		return commonDto.Page[postDto.PostResponse]{}, err
	}

	records, err := s.toResponses(ctx, posts, viewerID)
	if err != nil {
		return commonDto.Page[postDto.PostResponse]{}, err
	}
	return commonDto.NewPage(records, page, total), nil
}

func (s *postService) CreatePost(ctx context.Context, userID uint, req postDto.CreatePostRequest) (*postDto.PostResponse, error) {
	content := sanitize.Text(req.Content)
	if content == "" {
		return nil, apperror.Validation("The content field is required.")
	}

	if err := ratelimiter.Guard(ctx, s.redisClient, userID, createPostAction, s.cooldown); err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID:  userID,
		Content: content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		// nothing was stored, give the cooldown back
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, createPostAction)
		return nil, err
	}

	return s.GetPostByID(ctx, userID, post.ID)
}

func (s *postService) GetPostByID(ctx context.Context, viewerID, postID uint) (*postDto.PostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post not found.")
	}

	responses, err := s.toResponses(ctx, []entity.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *postService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperror.NotFound("Post not found.")
	}
	if post.UserID != userID {
		return apperror.Forbidden("Unauthorized to delete this post.")
	}

	return s.postRepo.Delete(ctx, post)
}
