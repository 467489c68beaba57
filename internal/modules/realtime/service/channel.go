package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	userPrefix          = "user."
	notificationsPrefix = "notifications."
	commentsPrefix      = "comments."

	// ReactionsChannel is world readable for any logged in user.
	ReactionsChannel = "reactions"
)

// UserChannel carries message.sent, message.read and chatroom.created for one user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userPrefix, userID)
}

func NotificationsChannel(userID uint) string {
	return fmt.Sprintf("%s%d", notificationsPrefix, userID)
}

func CommentsChannel(postID uint) string {
	return fmt.Sprintf("%s%d", commentsPrefix, postID)
}

// Authorize decides whether identity may subscribe to channel. An identity of 0 means
// the caller is not authenticated and is always denied.
func Authorize(identity uint, channel string) bool {
	if identity == 0 {
		return false
	}

	switch {
	case channel == ReactionsChannel:
		return true
	case strings.HasPrefix(channel, userPrefix):
		id, ok := channelParam(channel, userPrefix)
		return ok && id == identity
	case strings.HasPrefix(channel, notificationsPrefix):
		id, ok := channelParam(channel, notificationsPrefix)
		return ok && id == identity
	case strings.HasPrefix(channel, commentsPrefix):
		_, ok := channelParam(channel, commentsPrefix)
		return ok
	default:
		return false
	}
}

func channelParam(channel, prefix string) (uint, bool) {
	raw := strings.TrimPrefix(channel, prefix)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
