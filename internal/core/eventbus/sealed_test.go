package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
	"github.com/axiumai/chat-widget/internal/infrastructure/eventbus/memory"
	"github.com/axiumai/chat-widget/internal/pkg/encryption"
)

func newEncryptor(t *testing.T) *encryption.AESEncryptor {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)
	return enc
}

func next(t *testing.T, sub eventbus.Subscription) eventbus.Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return eventbus.Message{}
	}
}

func TestSealedBus_EncryptsOnTheWire(t *testing.T) {
	inner := memory.NewBus(0, zerolog.Nop())
	sealed := eventbus.NewSealedBus(inner, newEncryptor(t), zerolog.Nop())
	defer sealed.Close()
	ctx := context.Background()

	raw, err := inner.Subscribe(ctx, "t")
	require.NoError(t, err)
	opened, err := sealed.Subscribe(ctx, "t")
	require.NoError(t, err)
	defer opened.Close()

	require.NoError(t, sealed.Publish(ctx, "t", []byte("hello")))

	assert.NotEqual(t, "hello", string(next(t, raw).Payload))
	msg := next(t, opened)
	assert.Equal(t, "hello", string(msg.Payload))
	assert.Equal(t, "t", msg.Topic)
}

func TestSealedBus_DropsForeignPayloads(t *testing.T) {
	inner := memory.NewBus(0, zerolog.Nop())
	sealed := eventbus.NewSealedBus(inner, newEncryptor(t), zerolog.Nop())
	defer sealed.Close()
	ctx := context.Background()

	sub, err := sealed.Subscribe(ctx, "t")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, inner.Publish(ctx, "t", []byte("plaintext")))
	require.NoError(t, sealed.Publish(ctx, "t", []byte("valid")))

	assert.Equal(t, "valid", string(next(t, sub).Payload))
}

func TestSealedBus_CloseSubscription(t *testing.T) {
	inner := memory.NewBus(0, zerolog.Nop())
	sealed := eventbus.NewSealedBus(inner, newEncryptor(t), zerolog.Nop())
	defer sealed.Close()

	sub, err := sealed.Subscribe(context.Background(), "t")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
	assert.Equal(t, 0, inner.Subscribers("t"))
}

func TestType_Valid(t *testing.T) {
	assert.True(t, eventbus.TypeMemory.Valid())
	assert.True(t, eventbus.TypeRedis.Valid())
	assert.False(t, eventbus.Type("kafka").Valid())
}
