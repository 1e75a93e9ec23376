package cipher

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

func TestChaCha20_RoundTrip(t *testing.T) {
	e := NewChaCha20()
	key := testKey(t)

	for _, plaintext := range []string{"", "webhook-secret-77", "ключ-🔐"} {
		blob, err := e.Encrypt([]byte(plaintext), key)
		require.NoError(t, err)

		got, err := e.Decrypt(blob, key)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(got))
	}
}

func TestChaCha20_EncryptIsNonDeterministic(t *testing.T) {
	e := NewChaCha20()
	key := testKey(t)

	first, err := e.Encrypt([]byte("p"), key)
	require.NoError(t, err)
	second, err := e.Encrypt([]byte("p"), key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestChaCha20_TamperDetection(t *testing.T) {
	e := NewChaCha20()
	key := testKey(t)

	blob, err := e.Encrypt([]byte("tamper me"), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x80

	_, err = e.Decrypt(base64.StdEncoding.EncodeToString(raw), key)
	assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
}

func TestChaCha20_KeyLength(t *testing.T) {
	e := NewChaCha20()

	_, err := e.Encrypt([]byte("p"), make([]byte, 31))
	assert.ErrorIs(t, err, driven.ErrEncryptionFailed)
}

func TestChaCha20_CrossEngineBlobFails(t *testing.T) {
	key := testKey(t)

	blob, err := NewAESGCM().Encrypt([]byte("sealed by aes"), key)
	require.NoError(t, err)

	// Same blob layout but a different cipher: authentication must fail.
	_, err = NewChaCha20().Decrypt(blob, key)
	assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
}
