package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"chattr.app/backend/internal/entity"
	"chattr.app/backend/internal/modules/notification/dto"
	notifRepo "chattr.app/backend/internal/modules/notification/repository"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/internal/testutil"
	"chattr.app/backend/pkg/apperror"
	commonDto "chattr.app/backend/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   NotificationService
	rec   *testutil.Recorder
	owner *entity.User
	actor *entity.User
	post  *entity.Post
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &testutil.Recorder{}
	owner := testutil.CreateUser(t, db, "Owner")
	actor := testutil.CreateUser(t, db, "Actor")
	return &fixture{
		db:    db,
		svc:   NewNotificationService(notifRepo.NewNotificationRepository(db), rec),
		rec:   rec,
		owner: owner,
		actor: actor,
		post:  testutil.CreatePost(t, db, owner, "hello"),
	}
}

func (f *fixture) notify(t *testing.T) *entity.Notification {
	t.Helper()
	n, err := f.svc.Notify(context.Background(), dto.NotifyInput{
		RecipientID: f.owner.ID,
		ActorID:     f.actor.ID,
		PostID:      f.post.ID,
		Type:        entity.NotificationReaction,
		Message:     "Actor Tester reacted to your post.",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	return n
}

func TestNotify_CreatesAndAnnounces(t *testing.T) {
	f := setup(t)

	n := f.notify(t)
	assert.False(t, n.IsRead)

	ev, ok := f.rec.Last(realtime.NotificationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{realtime.NotificationsChannel(f.owner.ID)}, ev.Channels)
}

func TestNotify_SkipsSelf(t *testing.T) {
	f := setup(t)

	n, err := f.svc.Notify(context.Background(), dto.NotifyInput{
		RecipientID: f.owner.ID,
		ActorID:     f.owner.ID,
		PostID:      f.post.ID,
		Type:        entity.NotificationComment,
	})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.rec.Events())

	count, err := f.svc.UnreadCount(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAsRead_IsIdempotent(t *testing.T) {
	f := setup(t)
	n := f.notify(t)
	f.rec.Reset()

	got, transitioned, err := f.svc.MarkAsRead(context.Background(), f.owner.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.True(t, got.IsRead)

	_, transitioned, err = f.svc.MarkAsRead(context.Background(), f.owner.ID, n.ID)
	require.NoError(t, err)
	assert.False(t, transitioned)

	// only the real transition is announced
	assert.Equal(t, []realtime.EventKind{realtime.NotificationReadEvent}, f.rec.Kinds())
}

func TestMarkAsRead_OtherUsersNotificationIsNotFound(t *testing.T) {
	f := setup(t)
	n := f.notify(t)

	_, _, err := f.svc.MarkAsRead(context.Background(), f.actor.ID, n.ID)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))

	_, _, err = f.svc.MarkAsRead(context.Background(), f.owner.ID, 9999)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestMarkAllAsRead(t *testing.T) {
	f := setup(t)
	f.notify(t)
	f.notify(t)
	f.notify(t)
	f.rec.Reset()

	updated, err := f.svc.MarkAllAsRead(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)
	assert.Len(t, f.rec.Events(), 3)

	updated, err = f.svc.MarkAllAsRead(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Len(t, f.rec.Events(), 3)

	count, err := f.svc.UnreadCount(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllAsRead_ConcurrentCallsAnnounceEachRowOnce(t *testing.T) {
	f := setup(t)
	for i := 0; i < 5; i++ {
		f.notify(t)
	}
	f.rec.Reset()

	var wg sync.WaitGroup
	totals := make([]int, 4)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := f.svc.MarkAllAsRead(context.Background(), f.owner.ID)
			assert.NoError(t, err)
			totals[i] = n
		}(i)
	}
	wg.Wait()

	sum := 0
	for _, n := range totals {
		sum += n
	}
	assert.Equal(t, 5, sum)
	assert.Len(t, f.rec.Events(), 5)
}

func TestGetNotifications_FilterAndPaging(t *testing.T) {
	f := setup(t)
	first := f.notify(t)
	f.notify(t)
	f.notify(t)

	_, _, err := f.svc.MarkAsRead(context.Background(), f.owner.ID, first.ID)
	require.NoError(t, err)

	all, err := f.svc.GetNotifications(context.Background(), f.owner.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalRecords)
	assert.Equal(t, 1, all.PageIndex)
	assert.Equal(t, commonDto.DefaultPageSize, all.PageSize)

	unread, err := f.svc.GetNotifications(context.Background(), f.owner.ID, commonDto.PageQuery{Filter: "unread"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread.TotalRecords)
	for _, n := range unread.Records {
		assert.False(t, n.IsRead)
	}

	paged, err := f.svc.GetNotifications(context.Background(), f.owner.ID, commonDto.PageQuery{PageIndex: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Records, 1)
	assert.Equal(t, 2, paged.TotalPages)

	none, err := f.svc.GetNotifications(context.Background(), f.actor.ID, commonDto.PageQuery{})
	require.NoError(t, err)
	assert.Empty(t, none.Records)
	assert.NotNil(t, none.Records)
}

func TestRemove_DeletesAndAnnounces(t *testing.T) {
	f := setup(t)
	n := f.notify(t)
	f.rec.Reset()

	require.NoError(t, f.svc.Remove(context.Background(), f.owner.ID, f.actor.ID, f.post.ID, entity.NotificationReaction))

	ev, ok := f.rec.Last(realtime.NotificationRemovedEvent)
	require.True(t, ok)
	assert.Equal(t, n.ID, ev.Payload.(realtime.NotificationPayload).Notification.ID)

	count, err := f.svc.UnreadCount(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// nothing left, nothing announced
	f.rec.Reset()
	require.NoError(t, f.svc.Remove(context.Background(), f.owner.ID, f.actor.ID, f.post.ID, entity.NotificationReaction))
	assert.Empty(t, f.rec.Events())
}
