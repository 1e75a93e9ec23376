package cipher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// AlgorithmChaCha20 identifies blobs produced by the ChaCha20-Poly1305 engine.
const AlgorithmChaCha20 = "chacha20-poly1305"

// Compile-time interface satisfaction check.
var _ driven.CipherEngine = (*ChaCha20)(nil)

// ChaCha20 is the ChaCha20-Poly1305 implementation of the CipherEngine
// port. Same blob layout as the AES engine: base64(nonce || ciphertext || tag)
// with a 12-byte nonce and a 16-byte tag.
type ChaCha20 struct{}

// NewChaCha20 creates the ChaCha20-Poly1305 engine.
func NewChaCha20() *ChaCha20 {
	return &ChaCha20{}
}

// AlgorithmID returns "chacha20-poly1305".
func (e *ChaCha20) AlgorithmID() string { return AlgorithmChaCha20 }

// Supports reports whether id names this engine.
func (e *ChaCha20) Supports(id string) bool { return id == AlgorithmChaCha20 }

// Encrypt seals plaintext under key and returns base64(nonce || ciphertext || tag).
func (e *ChaCha20) Encrypt(plaintext, key []byte) (string, error) {
	if plaintext == nil {
		return "", fmt.Errorf("%w: plaintext is nil", driven.ErrInvalidInput)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("%w: chacha20poly1305.New: %v", driven.ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: rand nonce: %v", driven.ErrEncryptionFailed, err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (e *ChaCha20) Decrypt(blob string, key []byte) ([]byte, error) {
	if blob == "" {
		return nil, fmt.Errorf("%w: blob is empty", driven.ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", driven.ErrDecryptionFailed, err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: chacha20poly1305.New: %v", driven.ErrDecryptionFailed, err)
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", driven.ErrDecryptionFailed)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: aead open: %v", driven.ErrDecryptionFailed, err)
	}

	return plaintext, nil
}
