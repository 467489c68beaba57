package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Subscription is one connection's view of the pub/sub bus.
type Subscription interface {
	Subscribe(ctx context.Context, channels ...string) error
	Unsubscribe(ctx context.Context, channels ...string) error
	Messages() <-chan *redis.Message
	Close() error
}

type Subscriber interface {
	Open(ctx context.Context) Subscription
}

type redisSubscriber struct {
	client *redis.Client
}

// NewRedisSubscriber opens one redis PubSub per websocket connection. Connections made
// while redis is not configured get a subscription that never delivers anything.
func NewRedisSubscriber(client *redis.Client) Subscriber {
	return &redisSubscriber{client: client}
}

func (s *redisSubscriber) Open(ctx context.Context) Subscription {
	if s.client == nil {
		return nopSubscription{}
	}
	// no channels yet, the client asks for them one by one
	return &redisSubscription{pubsub: s.client.Subscribe(ctx)}
}

type redisSubscription struct {
	pubsub *redis.PubSub
}

func (s *redisSubscription) Subscribe(ctx context.Context, channels ...string) error {
	return s.pubsub.Subscribe(ctx, channels...)
}

func (s *redisSubscription) Unsubscribe(ctx context.Context, channels ...string) error {
	return s.pubsub.Unsubscribe(ctx, channels...)
}

func (s *redisSubscription) Messages() <-chan *redis.Message {
	return s.pubsub.Channel()
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

type nopSubscription struct{}

func (nopSubscription) Subscribe(context.Context, ...string) error   { return nil }
func (nopSubscription) Unsubscribe(context.Context, ...string) error { return nil }
func (nopSubscription) Messages() <-chan *redis.Message              { return nil }
func (nopSubscription) Close() error                                 { return nil }
