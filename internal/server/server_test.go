package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chattr.app/backend/internal/config"
	"chattr.app/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Author  string          `json:"author"`
	Msg     string          `json:"msg"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		AppEnv:         "test",
		AllowedOrigins: []string{"http://localhost:3000"},
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
	}
	return NewServer(cfg, testutil.NewDB(t), nil).Handler()
}

func register(t *testing.T, h http.Handler, first string) (*client, uint) {
	t.Helper()
	c := &client{t: t, h: h}
	code, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": first,
		"last_name":  "Tester",
		"email":      first + "@chattr.test",
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, code, env.Msg)

	var auth struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	c.token = auth.Token
	return c, auth.User.ID
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := &client{t: t, h: newTestServer(t)}

	code, env := c.do(http.MethodGet, "/api/posts", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Chattr", env.Author)
	assert.False(t, env.Success)
}

func TestSocialFlow(t *testing.T) {
	h := newTestServer(t)
	alice, _ := register(t, h, "alice")
	bob, bobID := register(t, h, "bob")

	code, env := alice.do(http.MethodPost, "/api/posts", map[string]string{"content": "hello chattr"})
	require.Equal(t, http.StatusCreated, code, env.Msg)
	var post struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	code, env = bob.do(http.MethodPost, fmt.Sprintf("/api/reactions/%d", post.ID), nil)
	require.Equal(t, http.StatusCreated, code, env.Msg)
	assert.Equal(t, "Reaction added successfully.", env.Msg)

	code, env = bob.do(http.MethodPost, fmt.Sprintf("/api/reactions/%d", post.ID), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "You have already reacted to this post.", env.Msg)

	code, _ = bob.do(http.MethodPost, fmt.Sprintf("/api/comments/%d", post.ID), map[string]string{"content": "nice"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = bob.do(http.MethodPost, fmt.Sprintf("/api/shares/%d", post.ID), map[string]string{"share_caption": "look"})
	require.Equal(t, http.StatusCreated, code)

	code, env = alice.do(http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":3}`, string(env.Data))

	code, env = alice.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		LikesCount   int64 `json:"likesCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.LikesCount)
	assert.Equal(t, int64(1), stats.CommentCount)
	assert.Equal(t, int64(1), stats.ShareCount)

	code, env = alice.do(http.MethodPost, "/api/messages/create-chatroom", map[string]uint{"receiver_id": bobID})
	require.Equal(t, http.StatusCreated, code, env.Msg)
	code, env = bob.do(http.MethodPost, "/api/messages/create-chatroom", map[string]uint{"receiver_id": bobID})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "You cannot create a chatroom with yourself.", env.Msg)

	code, env = alice.do(http.MethodPost, "/api/messages", map[string]interface{}{"receiver_id": bobID, "content": "hey bob"})
	require.Equal(t, http.StatusCreated, code, env.Msg)
	var sent struct {
		Chatroom struct {
			ID uint `json:"id"`
		} `json:"chatroom"`
		NewChatroom bool `json:"new_chatroom"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.False(t, sent.NewChatroom)

	code, env = bob.do(http.MethodPatch, fmt.Sprintf("/api/messages/%d/mark-read", sent.Chatroom.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updated":1}`, string(env.Data))

	code, _ = bob.do(http.MethodPost, "/api/broadcasting/auth", map[string]string{"channel": fmt.Sprintf("user.%d", bobID)})
	assert.Equal(t, http.StatusOK, code)
	code, _ = alice.do(http.MethodPost, "/api/broadcasting/auth", map[string]string{"channel": fmt.Sprintf("user.%d", bobID)})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = alice.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
}
