package handler

import (
	"context"
	"log"
	"net/http"

	"chattr.app/backend/internal/entity"
	realtimeDto "chattr.app/backend/internal/modules/realtime/dto"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SessionVerifier re-checks the token a socket was opened with.
type SessionVerifier interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

type BroadcastHandler struct {
	subscriber realtime.Subscriber
	sessions   SessionVerifier
	upgrader   websocket.Upgrader
}

// NewBroadcastHandler accepts a nil sessions, which skips the per subscribe session check.
func NewBroadcastHandler(subscriber realtime.Subscriber, sessions SessionVerifier, allowedOrigins []string) *BroadcastHandler {
	return &BroadcastHandler{
		subscriber: subscriber,
		sessions:   sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Connect upgrades an authenticated request into a subscription socket.
func (h *BroadcastHandler) Connect(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	ctx := c.Request.Context()
	cl := newClient(conn, userID, uuid.NewString(), h.subscriber.Open(ctx))
	cl.verify = h.sessionCheck(c.GetString("token"))
	cl.run(ctx)
}

// sessionCheck returns nil when there is nothing to verify against.
func (h *BroadcastHandler) sessionCheck(token string) func(ctx context.Context) error {
	if h.sessions == nil {
		return nil
	}
	return func(ctx context.Context) error {
		_, err := h.sessions.Authenticate(ctx, token)
		return err
	}
}

// Authorize answers the channel decision without opening a socket.
func (h *BroadcastHandler) Authorize(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req realtimeDto.ChannelAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err)
		return
	}

	if !realtime.Authorize(userID, req.Channel) {
		response.Error(c, http.StatusForbidden, "You are not allowed to listen on this channel.")
		return
	}

	response.Success(c, http.StatusOK, "Channel authorized.", realtimeDto.ChannelAuthResponse{
		Channel:    req.Channel,
		Authorized: true,
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non browser clients send no origin
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
