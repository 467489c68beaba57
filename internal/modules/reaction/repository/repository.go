package repository

import (
	"context"

	"chattr.app/backend/internal/entity"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	Create(ctx context.Context, reaction *entity.Reaction) error
	// FindByPostAndUser returns nil when the user has not reacted to the post.
	FindByPostAndUser(ctx context.Context, postID, userID uint) (*entity.Reaction, error)
	// FindForUser returns nil when id does not exist or belongs to someone else.
	FindForUser(ctx context.Context, id, userID uint) (*entity.Reaction, error)
	ListByPost(ctx context.Context, postID uint) ([]entity.Reaction, error)
	Delete(ctx context.Context, reaction *entity.Reaction) error
	CountLikes(ctx context.Context, postID uint) (int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Create(ctx context.Context, reaction *entity.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) FindByPostAndUser(ctx context.Context, postID, userID uint) (*entity.Reaction, error) {
	// Use Find with slice to avoid "record not found" log noise from GORM's First()
	var existing []entity.Reaction
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (r *reactionRepository) FindForUser(ctx context.Context, id, userID uint) (*entity.Reaction, error) {
	var existing []entity.Reaction
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID uint) ([]entity.Reaction, error) {
	var reactions []entity.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

func (r *reactionRepository) Delete(ctx context.Context, reaction *entity.Reaction) error {
	return r.db.WithContext(ctx).Delete(reaction).Error
}

func (r *reactionRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Where("post_id = ? AND type = ?", postID, entity.ReactionLike).
		Count(&count).Error
	return count, err
}
