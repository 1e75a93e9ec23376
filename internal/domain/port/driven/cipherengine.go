package driven

// CipherEngine defines the driven port for authenticated encryption.
// Implementations must be stateless or internally thread-safe: engines are
// shared across concurrent vault operations, and nonce generation must not
// produce duplicates under the same key.
type CipherEngine interface {
	// Encrypt seals plaintext under a 32-byte key and returns the blob as
	// base64(nonce || ciphertext || tag). A fresh random nonce is drawn for
	// every call, so encrypting the same plaintext twice yields different
	// blobs. Empty plaintext is valid; nil plaintext or a wrong-length key
	// returns an error wrapping ErrEncryptionFailed or ErrInvalidInput.
	Encrypt(plaintext, key []byte) (string, error)

	// Decrypt opens a blob produced by Encrypt. Any tag mismatch, truncated
	// input, or malformed base64 returns an error wrapping
	// ErrDecryptionFailed; unverified plaintext is never returned.
	Decrypt(blob string, key []byte) ([]byte, error)

	// AlgorithmID returns the identifier persisted on records this engine
	// encrypts, e.g. "aes-256-gcm".
	AlgorithmID() string

	// Supports reports whether this engine can decrypt blobs recorded under
	// the given algorithm identifier.
	Supports(algorithmID string) bool
}

// EngineRegistry selects a CipherEngine by algorithm identifier, falling
// back to a designated default for unknown identifiers. Implementations are
// immutable after construction.
type EngineRegistry interface {
	// Resolve returns the first registered engine supporting algorithmID,
	// or the default engine when none matches.
	Resolve(algorithmID string) CipherEngine

	// Default returns the engine used for new encryptions.
	Default() CipherEngine

	// Algorithms lists registered algorithm identifiers for diagnostics.
	Algorithms() []string
}

// KeyProvider defines the driven port for versioned key material. Keys are
// modeled as a version registry so records encrypted under a prior key stay
// decryptable after rotation, without re-encrypting every row immediately.
type KeyProvider interface {
	// Current returns the newest key version and its 32-byte key. New
	// encryptions always use this pair.
	Current() (version int, key []byte, err error)

	// Key returns the 32-byte key for a historical version. Returns an
	// error wrapping ErrKeyVersionUnknown when the version is not held.
	Key(version int) ([]byte, error)
}
