package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
	redisbus "github.com/axiumai/chat-widget/internal/infrastructure/eventbus/redis"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redisbus.Bus) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	bus, err := redisbus.NewBus(redisbus.Config{
		Host:     mr.Host(),
		Port:     mr.Port(),
		Password: "",
		DB:       0,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		bus.Close()
		mr.Close()
	})

	return mr, bus
}

func receive(t *testing.T, sub eventbus.Subscription) eventbus.Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return eventbus.Message{}
	}
}

func TestNewBus_ConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	bus, err := redisbus.NewBus(redisbus.Config{Host: host, Port: port})

	assert.Error(t, err)
	assert.Nil(t, bus)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestBus_Ping(t *testing.T) {
	_, bus := setupMiniredis(t)

	assert.NoError(t, bus.Ping(context.Background()))
}

func TestBus_PublishSubscribe(t *testing.T) {
	_, bus := setupMiniredis(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "conversation:abc:events")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, "conversation:abc:events", []byte(`{"type":"state"}`)))
	require.NoError(t, bus.Publish(ctx, "conversation:abc:events", []byte(`{"type":"typing"}`)))

	first := receive(t, sub)
	assert.Equal(t, "conversation:abc:events", first.Topic)
	assert.JSONEq(t, `{"type":"state"}`, string(first.Payload))
	assert.JSONEq(t, `{"type":"typing"}`, string(receive(t, sub).Payload))
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	mr, bus := setupMiniredis(t)

	require.NoError(t, bus.Publish(context.Background(), "nobody", []byte("x")))
	assert.Empty(t, mr.PubSubChannels("nobody"))
}

func TestSubscription_Close(t *testing.T) {
	mr, bus := setupMiniredis(t)

	sub, err := bus.Subscribe(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, mr.PubSubChannels("t"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed")
	}
}
