package driven

import "errors"

// Sentinel errors shared across the vault's ports. Adapters wrap these with
// fmt.Errorf("...: %w", ...) so callers classify with errors.Is while logs
// keep the adapter-level detail.
var (
	// ErrInvalidInput is returned when a required field is blank or a
	// parameter is out of range. Rejected at the boundary, before any
	// cipher or store work happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateCredential is returned by Store when an active credential
	// with the same (name, serviceID) already exists.
	ErrDuplicateCredential = errors.New("credential already exists")

	// ErrNotFound is returned when no active credential matches the lookup.
	// Soft-deleted credentials also surface as ErrNotFound so callers
	// cannot distinguish "never existed" from "deleted".
	ErrNotFound = errors.New("credential not found")

	// ErrEncryptionFailed covers cipher-level failures on the encrypt path,
	// including unsupported key lengths. Not retryable.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed covers tag mismatch, truncated or malformed
	// ciphertext, and wrong-key detection. Not retryable: a bad-tag decrypt
	// cannot succeed on a second attempt.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNoDefaultEngine is a configuration error: the algorithm registry
	// was built without a usable default engine. Fatal at startup.
	ErrNoDefaultEngine = errors.New("no default encryption engine registered")

	// ErrKeyVersionUnknown is returned when a stored record references a
	// key version the key provider does not hold. Configuration problem,
	// not a cipher failure; not retryable.
	ErrKeyVersionUnknown = errors.New("unknown key version")

	// ErrStoreUnavailable marks transient persistence failures (timeout,
	// connection loss). The only retryable kind.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrConflict is returned by Update when the record version check
	// fails, meaning a concurrent writer got there first.
	ErrConflict = errors.New("credential was modified concurrently")
)
