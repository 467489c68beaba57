package post

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"chattr.app/backend/internal/entity"
	postDto "chattr.app/backend/internal/modules/post/dto"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	"chattr.app/backend/internal/testutil"
	"chattr.app/backend/pkg/apperror"
	commonDto "chattr.app/backend/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (PostService, postRepo.PostRepository, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := postRepo.NewPostRepository(db)
	return NewPostService(repo, nil, 0), repo, db
}

func TestCreatePost_SanitizesContent(t *testing.T) {
	svc, _, db := newService(t)
	u := testutil.CreateUser(t, db, "Alice")

	resp, err := svc.CreatePost(context.Background(), u.ID, postDto.CreatePostRequest{Content: "<b>hello</b> world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Content)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Zero(t, resp.LikesCount)

	_, err = svc.CreatePost(context.Background(), u.ID, postDto.CreatePostRequest{Content: "<script></script>"})
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.MapErrorToStatus(err))
}

func TestListPosts_CountsAndViewerReaction(t *testing.T) {
	svc, _, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")

	older := testutil.CreatePost(t, db, alice, "first")
	newer := testutil.CreatePost(t, db, bob, "second")

	like := &entity.Reaction{PostID: older.ID, UserID: bob.ID, Type: entity.ReactionLike}
	require.NoError(t, db.Create(like).Error)
	require.NoError(t, db.Create(&entity.Reaction{PostID: older.ID, UserID: alice.ID, Type: entity.ReactionLike}).Error)
	require.NoError(t, db.Create(&entity.Comment{PostID: older.ID, UserID: bob.ID, Content: "nice"}).Error)
	require.NoError(t, db.Create(&entity.Share{UserID: bob.ID, OriginalPostID: older.ID}).Error)

	page, err := svc.ListPosts(context.Background(), bob.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, int64(2), page.TotalRecords)

	// newest first
	assert.Equal(t, newer.ID, page.Records[0].ID)
	first := page.Records[1]
	assert.Equal(t, older.ID, first.ID)
	assert.Equal(t, int64(2), first.LikesCount)
	assert.Equal(t, int64(1), first.CommentCount)
	assert.Equal(t, int64(1), first.ShareCount)
	assert.True(t, first.LikedByUser)
	require.NotNil(t, first.UserReactionID)
	assert.Equal(t, like.ID, *first.UserReactionID)

	assert.False(t, page.Records[0].LikedByUser)
	assert.Nil(t, page.Records[0].UserReactionID)
}

func TestListPosts_SharedPostCarriesOriginal(t *testing.T) {
	svc, repo, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")
	original := testutil.CreatePost(t, db, alice, "original")

	shared := &entity.Post{UserID: bob.ID, Content: "look"}
	require.NoError(t, repo.CreateShare(context.Background(), &entity.Share{UserID: bob.ID, OriginalPostID: original.ID}, shared))

	resp, err := svc.GetPostByID(context.Background(), bob.ID, shared.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsShared)
	require.NotNil(t, resp.OriginalPost)
	assert.Equal(t, original.ID, resp.OriginalPost.ID)
	assert.Equal(t, "Alice", resp.OriginalPost.User.FirstName)
}

func TestGetPostByID_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.GetPostByID(context.Background(), 1, 42)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	svc, _, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")
	p := testutil.CreatePost(t, db, alice, "mine")

	err := svc.DeletePost(context.Background(), bob.ID, p.ID)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))

	require.NoError(t, svc.DeletePost(context.Background(), alice.ID, p.ID))

	err = svc.DeletePost(context.Background(), alice.ID, p.ID)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestDeletePost_RemovesShareAndChildren(t *testing.T) {
	svc, repo, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")
	original := testutil.CreatePost(t, db, alice, "original")

	share := &entity.Share{UserID: bob.ID, OriginalPostID: original.ID}
	shared := &entity.Post{UserID: bob.ID}
	require.NoError(t, repo.CreateShare(context.Background(), share, shared))
	require.NoError(t, db.Create(&entity.Comment{PostID: shared.ID, UserID: alice.ID, Content: "hey"}).Error)

	require.NoError(t, svc.DeletePost(context.Background(), bob.ID, shared.ID))

	var shares, comments int64
	db.Model(&entity.Share{}).Where("id = ?", share.ID).Count(&shares)
	db.Model(&entity.Comment{}).Where("post_id = ?", shared.ID).Count(&comments)
	assert.Zero(t, shares)
	assert.Zero(t, comments)

	// the original is untouched
	_, err := svc.GetPostByID(context.Background(), alice.ID, original.ID)
	assert.NoError(t, err)
}

type flakyPostRepo struct {
	postRepo.PostRepository
	createErr error
}

func (r *flakyPostRepo) Create(ctx context.Context, post *entity.Post) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.PostRepository.Create(ctx, post)
}

func TestCreatePost_FailedWriteReleasesCooldown(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	repo := &flakyPostRepo{PostRepository: postRepo.NewPostRepository(db), createErr: errors.New("connection reset")}
	svc := NewPostService(repo, rdb, time.Minute)
	alice := testutil.CreateUser(t, db, "Alice")
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, alice.ID, postDto.CreatePostRequest{Content: "first try"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrRateLimitExceeded)

	// retry straight away is not held back by the write that never happened
	repo.createErr = nil
	resp, err := svc.CreatePost(ctx, alice.ID, postDto.CreatePostRequest{Content: "second try"})
	require.NoError(t, err)
	assert.Equal(t, "second try", resp.Content)

	_, err = svc.CreatePost(ctx, alice.ID, postDto.CreatePostRequest{Content: "too soon"})
	assert.Equal(t, http.StatusTooManyRequests, apperror.MapErrorToStatus(err))
}
