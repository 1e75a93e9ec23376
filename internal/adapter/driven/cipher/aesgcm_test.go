package cipher

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestAESGCM_RoundTrip(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)

	cases := map[string]string{
		"empty":   "",
		"ascii":   "sk_live_abcd1234",
		"unicode": "pässwörd-日本語-🔑",
		"long":    strings.Repeat("0123456789abcdef", 4096),
	}

	for name, plaintext := range cases {
		t.Run(name, func(t *testing.T) {
			blob, err := e.Encrypt([]byte(plaintext), key)
			require.NoError(t, err)

			got, err := e.Decrypt(blob, key)
			require.NoError(t, err)
			assert.Equal(t, plaintext, string(got))
		})
	}
}

func TestAESGCM_EncryptIsNonDeterministic(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)
	plaintext := []byte("same plaintext, same key")

	first, err := e.Encrypt(plaintext, key)
	require.NoError(t, err)
	second, err := e.Encrypt(plaintext, key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two encryptions must use distinct nonces")

	for _, blob := range []string{first, second} {
		got, err := e.Decrypt(blob, key)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestAESGCM_TamperDetection(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)

	blob, err := e.Encrypt([]byte("tamper me"), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flipping any single byte (nonce, ciphertext, or tag) must fail
	// verification; altered plaintext must never come back.
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		_, err := e.Decrypt(base64.StdEncoding.EncodeToString(mutated), key)
		require.Error(t, err, "byte %d", i)
		assert.ErrorIs(t, err, driven.ErrDecryptionFailed, "byte %d", i)
	}
}

func TestAESGCM_DecryptRejectsMalformedInput(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)

	t.Run("bad base64", func(t *testing.T) {
		_, err := e.Decrypt("%%% not base64 %%%", key)
		assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
	})

	t.Run("truncated", func(t *testing.T) {
		blob, err := e.Encrypt([]byte("short lived"), key)
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)

		_, err = e.Decrypt(base64.StdEncoding.EncodeToString(raw[:10]), key)
		assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
	})

	t.Run("empty blob", func(t *testing.T) {
		_, err := e.Decrypt("", key)
		assert.ErrorIs(t, err, driven.ErrInvalidInput)
	})
}

func TestAESGCM_WrongKeyFails(t *testing.T) {
	e := NewAESGCM()

	blob, err := e.Encrypt([]byte("secret"), testKey(t))
	require.NoError(t, err)

	_, err = e.Decrypt(blob, testKey(t))
	assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
}

func TestAESGCM_KeyLength(t *testing.T) {
	e := NewAESGCM()

	_, err := e.Encrypt([]byte("p"), make([]byte, 16))
	assert.ErrorIs(t, err, driven.ErrEncryptionFailed)

	_, err = e.Decrypt(base64.StdEncoding.EncodeToString(make([]byte, 40)), make([]byte, 16))
	assert.ErrorIs(t, err, driven.ErrDecryptionFailed)
}

func TestAESGCM_NilPlaintextRejected(t *testing.T) {
	e := NewAESGCM()

	_, err := e.Encrypt(nil, testKey(t))
	assert.ErrorIs(t, err, driven.ErrInvalidInput)
}

func TestAESGCM_BlobLayout(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)
	plaintext := []byte("layout check")

	blob, err := e.Encrypt(plaintext, key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// nonce(12) || ciphertext(len(plaintext)) || tag(16)
	assert.Len(t, raw, 12+len(plaintext)+16)
}

func TestAESGCM_ConcurrentNoncesAreUnique(t *testing.T) {
	e := NewAESGCM()
	key := testKey(t)

	const workers = 16
	const perWorker = 50

	blobs := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				blob, err := e.Encrypt([]byte("concurrent"), key)
				assert.NoError(t, err)
				blobs <- blob
			}
		}()
	}
	wg.Wait()
	close(blobs)

	nonces := make(map[string]struct{})
	for blob := range blobs {
		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		nonces[string(raw[:12])] = struct{}{}
	}
	assert.Len(t, nonces, workers*perWorker, "no nonce may repeat under the same key")
}
