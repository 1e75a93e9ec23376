// Package cipher implements the vault's authenticated-encryption engines
// and the registry that selects between them. All engines share one blob
// format: base64(nonce || ciphertext || tag), stored as text.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// AlgorithmAESGCM identifies blobs produced by the AES-256-GCM engine.
const AlgorithmAESGCM = "aes-256-gcm"

const keySize = 32 // 256-bit keys for both engines.

// Compile-time interface satisfaction check.
var _ driven.CipherEngine = (*AESGCM)(nil)

// AESGCM is the AES-256-GCM implementation of the CipherEngine port.
// It holds no state; every call draws a fresh 12-byte nonce from
// crypto/rand, so concurrent use is safe and nonces never repeat in
// practice under a given key.
type AESGCM struct{}

// NewAESGCM creates the AES-256-GCM engine.
func NewAESGCM() *AESGCM {
	return &AESGCM{}
}

// AlgorithmID returns "aes-256-gcm".
func (e *AESGCM) AlgorithmID() string { return AlgorithmAESGCM }

// Supports reports whether id names this engine.
func (e *AESGCM) Supports(id string) bool { return id == AlgorithmAESGCM }

// Encrypt seals plaintext under key and returns base64(nonce || ciphertext || tag).
func (e *AESGCM) Encrypt(plaintext, key []byte) (string, error) {
	if plaintext == nil {
		return "", fmt.Errorf("%w: plaintext is nil", driven.ErrInvalidInput)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", driven.ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: rand nonce: %v", driven.ErrEncryptionFailed, err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Tag mismatch, truncation, and
// malformed base64 all surface as ErrDecryptionFailed.
func (e *AESGCM) Decrypt(blob string, key []byte) ([]byte, error) {
	if blob == "" {
		return nil, fmt.Errorf("%w: blob is empty", driven.ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", driven.ErrDecryptionFailed, err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrDecryptionFailed, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", driven.ErrDecryptionFailed)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gcm open: %v", driven.ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (gocipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
