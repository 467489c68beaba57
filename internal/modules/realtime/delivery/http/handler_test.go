package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chattr.app/backend/internal/entity"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
	messages     chan *redis.Message
}

func (f *fakeSubscription) Subscribe(_ context.Context, channels ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, channels...)
	return nil
}

func (f *fakeSubscription) Unsubscribe(_ context.Context, channels ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, channels...)
	return nil
}

func (f *fakeSubscription) Messages() <-chan *redis.Message { return f.messages }
func (f *fakeSubscription) Close() error                   { return nil }

func (f *fakeSubscription) Subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribed...)
}

type fakeSubscriber struct {
	sub *fakeSubscription
}

func (f *fakeSubscriber) Open(context.Context) realtime.Subscription { return f.sub }

type fakeSessions struct {
	revoked atomic.Bool
	broken  atomic.Bool
}

func (f *fakeSessions) Authenticate(_ context.Context, token string) (*entity.User, error) {
	if f.broken.Load() {
		return nil, errors.New("redis: connection refused")
	}
	if f.revoked.Load() || token != "good-token" {
		return nil, apperror.Unauthorized("Session has been revoked.")
	}
	return &entity.User{ID: 7}, nil
}

type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, userID uint) (*websocket.Conn, *fakeSubscription) {
	t.Helper()
	conn, sub, _ := setupWithSessions(t, userID)
	return conn, sub
}

func setupWithSessions(t *testing.T, userID uint) (*websocket.Conn, *fakeSubscription, *fakeSessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sub := &fakeSubscription{messages: make(chan *redis.Message, 8)}
	sessions := &fakeSessions{}
	h := NewBroadcastHandler(&fakeSubscriber{sub: sub}, sessions, []string{"http://localhost:3000"})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("token", "good-token")
	})
	r.GET("/ws", h.Connect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, sub, sessions
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func envelope(t *testing.T, channel, socketID string, data string) *redis.Message {
	t.Helper()
	payload, err := json.Marshal(realtime.Envelope{
		Event:    realtime.MessageSentEvent,
		Channel:  channel,
		Data:     json.RawMessage(data),
		SocketID: socketID,
	})
	require.NoError(t, err)
	return &redis.Message{Channel: realtime.RedisChannel(channel), Payload: string(payload)}
}

func TestConnect_SendsSocketID(t *testing.T) {
	conn, _ := setup(t, 7)

	f := readFrame(t, conn)
	assert.Equal(t, "connection.established", f.Event)

	var data struct {
		SocketID string `json:"socket_id"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.NotEmpty(t, data.SocketID)
}

func TestConnect_SubscribeOwnChannelDeliversEvents(t *testing.T) {
	conn, sub := setup(t, 7)
	established := readFrame(t, conn)
	var own struct {
		SocketID string `json:"socket_id"`
	}
	require.NoError(t, json.Unmarshal(established.Data, &own))

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "user.7"}))
	f := readFrame(t, conn)
	assert.Equal(t, "subscription.succeeded", f.Event)
	assert.Equal(t, "user.7", f.Channel)
	assert.Equal(t, []string{"chattr:user.7"}, sub.Subscribed())

	// own echo is skipped, the next frame is the foreign one
	sub.messages <- envelope(t, "user.7", own.SocketID, `{"id":1}`)
	sub.messages <- envelope(t, "user.7", "someone-else", `{"id":2}`)

	f = readFrame(t, conn)
	assert.Equal(t, "message.sent", f.Event)
	assert.Equal(t, "user.7", f.Channel)
	assert.JSONEq(t, `{"id":2}`, string(f.Data))
}

func TestConnect_ForeignChannelDenied(t *testing.T) {
	conn, sub := setup(t, 7)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "user.8"}))
	f := readFrame(t, conn)
	assert.Equal(t, "subscription.error", f.Event)
	assert.Equal(t, "user.8", f.Channel)
	assert.Empty(t, sub.Subscribed())

	// nothing from user.8 leaks through
	sub.messages <- envelope(t, "user.8", "", `{"id":3}`)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Event)
}

func TestConnect_UnsubscribeStopsDelivery(t *testing.T) {
	conn, sub := setup(t, 7)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "reactions"}))
	assert.Equal(t, "subscription.succeeded", readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "unsubscribe", "channel": "reactions"}))
	assert.Equal(t, "unsubscription.succeeded", readFrame(t, conn).Event)

	sub.messages <- envelope(t, "reactions", "", `{"post_id":1,"likesCount":1}`)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Event)

	sub.mu.Lock()
	assert.Equal(t, []string{"chattr:reactions"}, sub.unsubscribed)
	sub.mu.Unlock()
}

func TestConnect_MalformedFrame(t *testing.T) {
	conn, _ := setup(t, 7)
	readFrame(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "error", readFrame(t, conn).Event)
}

func TestConnect_RevokedSessionCannotSubscribe(t *testing.T) {
	conn, sub, sessions := setupWithSessions(t, 7)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "user.7"}))
	assert.Equal(t, "subscription.succeeded", readFrame(t, conn).Event)

	// a login elsewhere replaced this session
	sessions.revoked.Store(true)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "notifications.7"}))
	f := readFrame(t, conn)
	assert.Equal(t, "subscription.error", f.Event)
	assert.Equal(t, "notifications.7", f.Channel)
	assert.JSONEq(t, `{"message":"session expired"}`, string(f.Data))
	assert.Equal(t, []string{"chattr:user.7"}, sub.Subscribed())

	// the server hangs up instead of relaying more traffic
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestConnect_SessionStoreFailureKeepsSocket(t *testing.T) {
	conn, sub, sessions := setupWithSessions(t, 7)
	readFrame(t, conn)

	sessions.broken.Store(true)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "user.7"}))
	f := readFrame(t, conn)
	assert.Equal(t, "subscription.error", f.Event)
	assert.JSONEq(t, `{"message":"subscription failed"}`, string(f.Data))
	assert.Empty(t, sub.Subscribed())

	sessions.broken.Store(false)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": "user.7"}))
	assert.Equal(t, "subscription.succeeded", readFrame(t, conn).Event)
}

func TestConnect_RequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBroadcastHandler(&fakeSubscriber{sub: &fakeSubscription{}}, nil, nil)

	r := gin.New()
	r.GET("/ws", h.Connect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBroadcastHandler(&fakeSubscriber{sub: &fakeSubscription{}}, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", uint(7)) })
	r.POST("/auth", h.Authorize)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"own channel", `{"channel":"notifications.7"}`, http.StatusOK},
		{"post comments", `{"channel":"comments.3"}`, http.StatusOK},
		{"other user", `{"channel":"notifications.8"}`, http.StatusForbidden},
		{"missing channel", `{}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
