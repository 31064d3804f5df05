package encryption_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestNewAESEncryptor_RawKey(t *testing.T) {
	enc, err := encryption.NewAESEncryptor("0123456789abcdef0123456789abcdef")

	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestNewAESEncryptor_HexKeyIsRaw(t *testing.T) {
	// 32 hex characters are valid base64 too, decoding to 24 bytes.
	const hexKey = "0123456789abcdef0123456789abcdef"

	raw, err := encryption.NewAESEncryptor(hexKey)
	require.NoError(t, err)
	encoded, err := encryption.NewAESEncryptor(base64.StdEncoding.EncodeToString([]byte(hexKey)))
	require.NoError(t, err)

	sealed, err := raw.Encrypt([]byte("payload"))
	require.NoError(t, err)

	opened, err := encoded.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(opened))
}

func TestNewAESEncryptor_InvalidKeyLength(t *testing.T) {
	enc, err := encryption.NewAESEncryptor("tooshort!!!")

	assert.Error(t, err)
	assert.Nil(t, enc)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestAESEncryptor_RoundTrip(t *testing.T) {
	enc := newEncryptor(t)
	payload := []byte(`{"type":"message","message":{"text":"hi"}}`)

	sealed, err := enc.Encrypt(payload)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "message")

	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)
}

func TestAESEncryptor_NonceIsFresh(t *testing.T) {
	enc := newEncryptor(t)

	a, err := enc.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESEncryptor_DecryptFailures(t *testing.T) {
	enc := newEncryptor(t)
	other := newEncryptor(t)
	sealed, err := other.Encrypt([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "%%%"},
		{name: "too short", input: "AAAA"},
		{name: "wrong key", input: sealed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decrypt(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestAESEncryptor_TooShortSentinel(t *testing.T) {
	enc := newEncryptor(t)

	_, err := enc.Decrypt("AAAA")

	assert.ErrorIs(t, err, encryption.ErrCiphertextTooShort)
}
