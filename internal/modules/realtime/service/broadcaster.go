package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisChannelPrefix namespaces every application channel on the shared redis instance.
const RedisChannelPrefix = "chattr:"

func RedisChannel(channel string) string {
	return RedisChannelPrefix + channel
}

// Envelope is what travels through redis and what websocket clients receive.
type Envelope struct {
	Event    EventKind       `json:"event"`
	Channel  string          `json:"channel"`
	Data     json.RawMessage `json:"data"`
	SocketID string          `json:"socket_id,omitempty"`
}

type socketIDKey struct{}

// WithSocketID tags ctx with the websocket connection that issued the request.
func WithSocketID(ctx context.Context, socketID string) context.Context {
	if socketID == "" {
		return ctx
	}
	return context.WithValue(ctx, socketIDKey{}, socketID)
}

func SocketIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(socketIDKey{}).(string)
	return id
}

type Broadcaster interface {
	// Broadcast is fire and forget. Failures are logged, never returned to the caller.
	Broadcast(ctx context.Context, event Event)
}

// Publisher is the subset of *redis.Client the broadcaster needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type redisBroadcaster struct {
	publisher Publisher
}

// NewBroadcaster returns a broadcaster that drops every event when publisher is nil.
func NewBroadcaster(publisher Publisher) Broadcaster {
	return &redisBroadcaster{publisher: publisher}
}

// NewRedisBroadcaster falls back to Nop when redis is not configured.
func NewRedisBroadcaster(client *redis.Client) Broadcaster {
	if client == nil {
		return Nop{}
	}
	return NewBroadcaster(client)
}

func (b *redisBroadcaster) Broadcast(ctx context.Context, event Event) {
	if b.publisher == nil {
		return
	}
	if event.ExceptSocket == "" {
		event.ExceptSocket = SocketIDFrom(ctx)
	}

	data, err := json.Marshal(event.Payload)
	if err != nil {
		log.Printf("realtime: failed to encode %s payload: %v", event.Kind, err)
		return
	}

	for _, channel := range event.Channels {
		payload, err := json.Marshal(Envelope{
			Event:    event.Kind,
			Channel:  channel,
			Data:     data,
			SocketID: event.ExceptSocket,
		})
		if err != nil {
			log.Printf("realtime: failed to encode envelope for %s: %v", channel, err)
			continue
		}
		if err := b.publisher.Publish(ctx, RedisChannel(channel), payload).Err(); err != nil {
			log.Printf("realtime: failed to publish %s on %s: %v", event.Kind, channel, err)
		}
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Broadcast(context.Context, Event) {}
