package repository

import (
	"context"

	"chattr.app/backend/internal/entity"
	postDto "chattr.app/backend/internal/modules/post/dto"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	// CreateShare stores the share and its companion post atomically.
	CreateShare(ctx context.Context, share *entity.Share, post *entity.Post) error
	// FindByID returns nil when the post does not exist.
	FindByID(ctx context.Context, id uint) (*entity.Post, error)
	List(ctx context.Context, offset, limit int) ([]entity.Post, int64, error)
	Delete(ctx context.Context, post *entity.Post) error
	Stats(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]postDto.PostStats, error)
	// OriginalPosts maps share ids to the post each share points at.
	OriginalPosts(ctx context.Context, shareIDs []uint) (map[uint]*entity.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) CreateShare(ctx context.Context, share *entity.Share, post *entity.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			return err
		}
		post.IsShared = true
		post.ShareID = &share.ID
		return tx.Create(post).Error
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	// Use Find with slice to avoid "record not found" log noise from GORM's First()
	var posts []entity.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		Limit(1).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

func (r *postRepository) List(ctx context.Context, offset, limit int) ([]entity.Post, int64, error) {
	var posts []entity.Post
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) Delete(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children go first so the delete works without FK cascades too
		for _, model := range []interface{}{&entity.Reaction{}, &entity.Comment{}, &entity.Notification{}} {
			if err := tx.Where("post_id = ?", post.ID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&entity.Post{}, post.ID).Error; err != nil {
			return err
		}

		if post.IsShared && post.ShareID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *post.ShareID, post.UserID).Delete(&entity.Share{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type countRow struct {
	PostID uint
	Total  int64
}

func (r *postRepository) Stats(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]postDto.PostStats, error) {
	stats := make(map[uint]postDto.PostStats, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	db := r.db.WithContext(ctx)

	var likes, comments, shares []countRow
	if err := db.Model(&entity.Reaction{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ? AND type = ?", postIDs, entity.ReactionLike).
		Group("post_id").
		Scan(&likes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&comments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Share{}).
		Select("original_post_id AS post_id, COUNT(*) AS total").
		Where("original_post_id IN ?", postIDs).
		Group("original_post_id").
		Scan(&shares).Error; err != nil {
		return nil, err
	}

	var own []entity.Reaction
	if err := db.Where("post_id IN ? AND user_id = ? AND type = ?", postIDs, viewerID, entity.ReactionLike).
		Find(&own).Error; err != nil {
		return nil, err
	}

	for _, row := range likes {
		s := stats[row.PostID]
		s.LikesCount = row.Total
		stats[row.PostID] = s
	}
	for _, row := range comments {
		s := stats[row.PostID]
		s.CommentCount = row.Total
		stats[row.PostID] = s
	}
	for _, row := range shares {
		s := stats[row.PostID]
		s.ShareCount = row.Total
		stats[row.PostID] = s
	}
	for i := range own {
		s := stats[own[i].PostID]
		id := own[i].ID
		s.UserReactionID = &id
		stats[own[i].PostID] = s
	}

	return stats, nil
}

func (r *postRepository) OriginalPosts(ctx context.Context, shareIDs []uint) (map[uint]*entity.Post, error) {
	originals := make(map[uint]*entity.Post, len(shareIDs))
	if len(shareIDs) == 0 {
		return originals, nil
	}

	var shares []entity.Share
	if err := r.db.WithContext(ctx).
		Preload("OriginalPost").
		Preload("OriginalPost.User").
		Where("id IN ?", shareIDs).
		Find(&shares).Error; err != nil {
		return nil, err
	}

	for i := range shares {
		if shares[i].OriginalPost != nil {
			originals[shares[i].ID] = shares[i].OriginalPost
		}
	}
	return originals, nil
}
