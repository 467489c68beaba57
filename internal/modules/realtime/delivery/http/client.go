package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	realtimeDto "chattr.app/backend/internal/modules/realtime/dto"
	realtime "chattr.app/backend/internal/modules/realtime/service"
	"chattr.app/backend/pkg/apperror"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 64
)

// client is a single websocket connection. Only writePump writes to conn.
type client struct {
	conn     *websocket.Conn
	userID   uint
	socketID string
	sub      realtime.Subscription
	send     chan []byte

	// verify re-checks the session before each subscribe. nil skips the check.
	verify func(ctx context.Context) error
	closed chan struct{}

	mu       sync.RWMutex
	channels map[string]struct{}
}

func newClient(conn *websocket.Conn, userID uint, socketID string, sub realtime.Subscription) *client {
	return &client{
		conn:     conn,
		userID:   userID,
		socketID: socketID,
		sub:      sub,
		send:     make(chan []byte, sendBufferSize),
		closed:   make(chan struct{}),
		channels: make(map[string]struct{}),
	}
}

// run blocks until the peer goes away.
func (c *client) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		_ = c.sub.Close()
		_ = c.conn.Close()
	}()

	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writePump()
	}()

	c.queue(realtimeDto.ServerFrame{
		Event: realtimeDto.ConnectionEstablished,
		Data:  realtimeDto.ConnectionData{SocketID: c.socketID},
	})

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		c.forward(ctx)
	}()

	c.readPump(ctx)

	cancel()
	<-forwarded
	close(c.send)
	<-written
}

func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame realtimeDto.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.queue(realtimeDto.ServerFrame{
				Event: realtimeDto.FrameError,
				Data:  realtimeDto.ErrorData{Message: "frame must be valid JSON"},
			})
			continue
		}

		switch frame.Action {
		case realtimeDto.ActionSubscribe:
			if !c.subscribe(ctx, frame.Channel) {
				return
			}
		case realtimeDto.ActionUnsubscribe:
			c.unsubscribe(ctx, frame.Channel)
		case realtimeDto.ActionPing:
			c.queue(realtimeDto.ServerFrame{Event: realtimeDto.Pong})
		default:
			c.queue(realtimeDto.ServerFrame{
				Event: realtimeDto.FrameError,
				Data:  realtimeDto.ErrorData{Message: "unknown action"},
			})
		}
	}
}

// subscribe reports whether the connection should stay open.
func (c *client) subscribe(ctx context.Context, channel string) bool {
	if c.verify != nil {
		if err := c.verify(ctx); err != nil {
			if apperror.MapErrorToStatus(err) != http.StatusUnauthorized {
				log.Printf("realtime: session check for user %d failed: %v", c.userID, err)
				c.queue(realtimeDto.ServerFrame{
					Event:   realtimeDto.SubscriptionError,
					Channel: channel,
					Data:    realtimeDto.ErrorData{Message: "subscription failed"},
				})
				return true
			}
			c.queue(realtimeDto.ServerFrame{
				Event:   realtimeDto.SubscriptionError,
				Channel: channel,
				Data:    realtimeDto.ErrorData{Message: "session expired"},
			})
			close(c.closed)
			return false
		}
	}

	if !realtime.Authorize(c.userID, channel) {
		c.queue(realtimeDto.ServerFrame{
			Event:   realtimeDto.SubscriptionError,
			Channel: channel,
			Data:    realtimeDto.ErrorData{Message: "forbidden"},
		})
		return true
	}

	if err := c.sub.Subscribe(ctx, realtime.RedisChannel(channel)); err != nil {
		log.Printf("realtime: subscribe %s for user %d failed: %v", channel, c.userID, err)
		c.queue(realtimeDto.ServerFrame{
			Event:   realtimeDto.SubscriptionError,
			Channel: channel,
			Data:    realtimeDto.ErrorData{Message: "subscription failed"},
		})
		return true
	}

	c.mu.Lock()
	c.channels[channel] = struct{}{}
	c.mu.Unlock()

	c.queue(realtimeDto.ServerFrame{Event: realtimeDto.SubscriptionSucceeded, Channel: channel})
	return true
}

func (c *client) unsubscribe(ctx context.Context, channel string) {
	c.mu.Lock()
	_, ok := c.channels[channel]
	delete(c.channels, channel)
	c.mu.Unlock()

	if ok {
		if err := c.sub.Unsubscribe(ctx, realtime.RedisChannel(channel)); err != nil {
			log.Printf("realtime: unsubscribe %s for user %d failed: %v", channel, c.userID, err)
		}
	}
	c.queue(realtimeDto.ServerFrame{Event: realtimeDto.UnsubscriptionSucceeded, Channel: channel})
}

func (c *client) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

// forward relays bus messages for subscribed channels, minus our own echoes.
func (c *client) forward(ctx context.Context) {
	messages := c.sub.Messages()
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if frame, ok := c.frameFor(msg); ok {
				c.queueRaw(frame)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) frameFor(msg *redis.Message) ([]byte, bool) {
	channel := strings.TrimPrefix(msg.Channel, realtime.RedisChannelPrefix)
	if !c.subscribed(channel) {
		return nil, false
	}

	var env realtime.Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		log.Printf("realtime: dropping malformed envelope on %s: %v", msg.Channel, err)
		return nil, false
	}
	if env.SocketID != "" && env.SocketID == c.socketID {
		return nil, false
	}

	env.SocketID = ""
	out, err := json.Marshal(env)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (c *client) queue(frame realtimeDto.ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("realtime: failed to encode %s frame: %v", frame.Event, err)
		return
	}
	c.queueRaw(data)
}

// queueRaw drops the frame when the client is not keeping up.
func (c *client) queueRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("realtime: send buffer full for socket %s, dropping frame", c.socketID)
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// closing unblocks readPump, which tears the rest down
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}

	select {
	case <-c.closed:
		// the session is gone, say so before the socket drops
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"),
			time.Now().Add(writeWait))
	default:
	}
}
