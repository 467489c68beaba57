package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	calls []published
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.calls = append(f.calls, published{channel: channel, payload: message.([]byte)})
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func TestBroadcast_PublishesOneEnvelopePerChannel(t *testing.T) {
	pub := &fakePublisher{}
	b := NewBroadcaster(pub)

	b.Broadcast(WithSocketID(context.Background(), "sock-1"), MessageRead(3, 1, 2))

	require.Len(t, pub.calls, 2)
	assert.Equal(t, "chattr:user.1", pub.calls[0].channel)
	assert.Equal(t, "chattr:user.2", pub.calls[1].channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.calls[0].payload, &env))
	assert.Equal(t, MessageReadEvent, env.Event)
	assert.Equal(t, "user.1", env.Channel)
	assert.Equal(t, "sock-1", env.SocketID)
	assert.JSONEq(t, `{"chatroom_id":3,"sender_id":1,"receiver_id":2,"status":"read"}`, string(env.Data))
}

func TestBroadcast_PublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	b := NewBroadcaster(pub)

	assert.NotPanics(t, func() {
		b.Broadcast(context.Background(), ReactionCreated(1, 1))
	})
	assert.Len(t, pub.calls, 1)
}

func TestNewRedisBroadcaster_WithoutRedisIsNop(t *testing.T) {
	b := NewRedisBroadcaster(nil)
	assert.Equal(t, Nop{}, b)
	assert.NotPanics(t, func() {
		b.Broadcast(context.Background(), ReactionCreated(1, 1))
		NewBroadcaster(nil).Broadcast(context.Background(), ReactionCreated(1, 1))
	})
}

func TestNewRedisBroadcaster_PublishesThroughClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, RedisChannel(ReactionsChannel))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	NewRedisBroadcaster(rdb).Broadcast(ctx, ReactionCreated(4, 2))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	assert.Equal(t, ReactionCreatedEvent, env.Event)
	assert.JSONEq(t, `{"post_id":4,"likesCount":2}`, string(env.Data))
}

func TestBroadcast_ExplicitExceptSocketWins(t *testing.T) {
	pub := &fakePublisher{}
	b := NewBroadcaster(pub)

	ev := ReactionCreated(1, 1)
	ev.ExceptSocket = "sock-explicit"
	b.Broadcast(WithSocketID(context.Background(), "sock-ctx"), ev)

	require.Len(t, pub.calls, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(pub.calls[0].payload, &env))
	assert.Equal(t, "sock-explicit", env.SocketID)
}

func TestBroadcast_UnencodablePayloadPublishesNothing(t *testing.T) {
	pub := &fakePublisher{}
	b := NewBroadcaster(pub)

	b.Broadcast(context.Background(), Event{Kind: ReactionCreatedEvent, Channels: []string{ReactionsChannel}, Payload: make(chan int)})

	assert.Empty(t, pub.calls)
}

func TestBroadcast_SocketIDFromContext(t *testing.T) {
	pub := &fakePublisher{}
	b := NewBroadcaster(pub)

	ctx := WithSocketID(context.Background(), "sock-9")
	b.Broadcast(ctx, ReactionCreated(1, 2))

	require.Len(t, pub.calls, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(pub.calls[0].payload, &env))
	assert.Equal(t, "sock-9", env.SocketID)
}

func TestWithSocketID_EmptyLeavesContextUntouched(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithSocketID(ctx, ""))
	assert.Empty(t, SocketIDFrom(ctx))
}
