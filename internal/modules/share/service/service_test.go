package share

import (
	"context"
	"net/http"
	"testing"

	"chattr.app/backend/internal/entity"
	notifRepo "chattr.app/backend/internal/modules/notification/repository"
	notifService "chattr.app/backend/internal/modules/notification/service"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	shareDto "chattr.app/backend/internal/modules/share/dto"
	userRepo "chattr.app/backend/internal/modules/user/repository"
	"chattr.app/backend/internal/testutil"
	"chattr.app/backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (ShareService, *testutil.Recorder, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &testutil.Recorder{}
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), rec)
	return NewShareService(postRepo.NewPostRepository(db), userRepo.NewUserRepository(db), notifications), rec, db
}

func TestSharePost_CreatesShareAndCompanionPost(t *testing.T) {
	svc, rec, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	bob := testutil.CreateUser(t, db, "Bob")
	post := testutil.CreatePost(t, db, alice, "hello")

	caption := "<b>look</b> at this"
	resp, err := svc.SharePost(context.Background(), bob.ID, post.ID, shareDto.SharePostRequest{ShareCaption: &caption})
	require.NoError(t, err)
	require.NotNil(t, resp.Caption)
	assert.Equal(t, "look at this", *resp.Caption)
	assert.Equal(t, post.ID, resp.OriginalPostID)

	var companion entity.Post
	require.NoError(t, db.First(&companion, resp.PostID).Error)
	assert.True(t, companion.IsShared)
	require.NotNil(t, companion.ShareID)
	assert.Equal(t, resp.ID, *companion.ShareID)
	assert.Equal(t, "look at this", companion.Content)

	var n entity.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", alice.ID, entity.NotificationShare).First(&n).Error)
	assert.Equal(t, "Bob Tester shared your post.", n.Message)
	assert.Contains(t, rec.Kinds(), realtime.NotificationCreatedEvent)
}

func TestSharePost_WithoutCaption(t *testing.T) {
	svc, _, db := newService(t)
	alice := testutil.CreateUser(t, db, "Alice")
	post := testutil.CreatePost(t, db, alice, "hello")

	resp, err := svc.SharePost(context.Background(), alice.ID, post.ID, shareDto.SharePostRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.Caption)

	// sharing your own post does not notify you
	var count int64
	db.Model(&entity.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestSharePost_MissingPost(t *testing.T) {
	svc, _, db := newService(t)
	bob := testutil.CreateUser(t, db, "Bob")

	_, err := svc.SharePost(context.Background(), bob.ID, 404, shareDto.SharePostRequest{})
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))

	var shares int64
	db.Model(&entity.Share{}).Count(&shares)
	assert.Zero(t, shares)
}
