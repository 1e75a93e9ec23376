// Package application contains the vault's use-case orchestration services.
package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultMaxRetries   = 3
)

// StoreRequest carries everything needed to create a credential. Value is
// the mandatory plaintext secret; it never appears in any response or log.
type StoreRequest struct {
	Name        string
	Description string
	Type        model.CredentialType
	Value       string
	OwnerID     string
	ServiceID   string
	Environment string
	ExpiresAt   *time.Time
}

// UpdateRequest selects which credential fields to change. Nil pointers
// leave the field untouched. A non-nil NewValue re-encrypts the secret
// under the current default engine and key, like a single-record rotation.
type UpdateRequest struct {
	NewValue    *string
	Description *string
	Environment *string
	ExpiresAt   *time.Time
}

// VaultService orchestrates credential lifecycle operations: encrypt and
// persist on store, fetch and decrypt on retrieval, rotation, soft delete,
// and expiry scans. Every access attempt lands in the append-only access
// log. It depends only on port interfaces.
type VaultService struct {
	creds     driven.CredentialStore
	accessLog driven.AccessLogStore
	engines   driven.EngineRegistry
	keys      driven.KeyProvider

	writeLocks   *keyedMutex
	storeTimeout time.Duration
	maxRetries   uint64
}

// VaultOption adjusts VaultService construction defaults.
type VaultOption func(*VaultService)

// WithStoreTimeout bounds each store call. Operations exceeding it fail
// with ErrStoreUnavailable.
func WithStoreTimeout(d time.Duration) VaultOption {
	return func(s *VaultService) { s.storeTimeout = d }
}

// WithMaxRetries caps how many times a transient store failure is retried.
func WithMaxRetries(n uint64) VaultOption {
	return func(s *VaultService) { s.maxRetries = n }
}

// NewVaultService creates a new VaultService with the required dependencies.
func NewVaultService(
	creds driven.CredentialStore,
	accessLog driven.AccessLogStore,
	engines driven.EngineRegistry,
	keys driven.KeyProvider,
	opts ...VaultOption,
) *VaultService {
	s := &VaultService{
		creds:        creds,
		accessLog:    accessLog,
		engines:      engines,
		keys:         keys,
		writeLocks:   newKeyedMutex(),
		storeTimeout: defaultStoreTimeout,
		maxRetries:   defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store validates, encrypts, and persists a new credential, returning its
// metadata. Neither the plaintext nor the ciphertext is ever returned.
func (s *VaultService) Store(ctx context.Context, req StoreRequest) (*model.CredentialSummary, error) {
	if err := validateStoreRequest(req); err != nil {
		return nil, err
	}

	lockKey := writeLockKey(req.Name, req.ServiceID)
	s.writeLocks.Lock(lockKey)
	defer s.writeLocks.Unlock(lockKey)

	engine := s.engines.Default()
	keyVersion, key, err := s.keys.Current()
	if err != nil {
		return nil, fmt.Errorf("resolve current key: %w", err)
	}

	plaintext := []byte(req.Value)
	blob, err := engine.Encrypt(plaintext, key)
	zero(plaintext)
	if err != nil {
		slog.Error("credential encryption failed",
			"name", req.Name, "service_id", req.ServiceID, "algorithm", engine.AlgorithmID())
		return nil, fmt.Errorf("store credential: %w", err)
	}

	now := time.Now().UTC()
	accessor := AccessorFromContext(ctx)
	cred := model.Credential{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		CiphertextBlob: blob,
		AlgorithmID:    engine.AlgorithmID(),
		KeyVersion:     keyVersion,
		OwnerID:        req.OwnerID,
		ServiceID:      req.ServiceID,
		Environment:    req.Environment,
		Active:         true,
		ExpiresAt:      req.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      accessor.ID,
		UpdatedBy:      accessor.ID,
		RecordVersion:  1,
	}

	err = s.storeCall(ctx, func(ctx context.Context) error {
		return s.creds.Insert(ctx, cred)
	})
	s.logAccess(ctx, cred.ID, req.Name, req.ServiceID, model.AccessTypeCreate, err)
	if err != nil {
		return nil, fmt.Errorf("store credential %q: %w", req.Name, err)
	}

	slog.Info("credential stored",
		"name", req.Name, "service_id", req.ServiceID,
		"type", string(req.Type), "algorithm", cred.AlgorithmID, "key_version", keyVersion)

	summary := cred.Summary()
	return &summary, nil
}

// RetrievePlaintext looks up the active credential and decrypts it using
// the engine and key version recorded on the row, so records encrypted
// before a key rotation still decrypt. There is no fallback to another
// engine or key: a failed decrypt is surfaced as-is after being logged.
func (s *VaultService) RetrievePlaintext(ctx context.Context, name, serviceID string) (string, error) {
	if name == "" || serviceID == "" {
		return "", fmt.Errorf("%w: name and serviceID are required", driven.ErrInvalidInput)
	}

	cred, err := s.fetchActive(ctx, name, serviceID)
	if err != nil {
		s.logAccess(ctx, "", name, serviceID, model.AccessTypeDecrypt, err)
		return "", err
	}

	plaintext, err := s.decrypt(cred)
	s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeDecrypt, err)
	if err != nil {
		slog.Warn("credential decryption failed",
			"name", name, "service_id", serviceID,
			"algorithm", cred.AlgorithmID, "key_version", cred.KeyVersion)
		// Generic caller-facing failure; internal cipher diagnostics stay in
		// the log to avoid building a padding/tamper oracle.
		return "", fmt.Errorf("credential unavailable: %w", err)
	}

	value := string(plaintext)
	zero(plaintext)
	return value, nil
}

// GetCredentialInfo returns metadata for the active credential. No
// decryption happens and no plaintext is ever included.
func (s *VaultService) GetCredentialInfo(ctx context.Context, name, serviceID string) (*model.CredentialSummary, error) {
	if name == "" || serviceID == "" {
		return nil, fmt.Errorf("%w: name and serviceID are required", driven.ErrInvalidInput)
	}

	cred, err := s.fetchActive(ctx, name, serviceID)
	s.logAccess(ctx, credID(cred), name, serviceID, model.AccessTypeRead, err)
	if err != nil {
		return nil, err
	}

	summary := cred.Summary()
	return &summary, nil
}

// UpdateCredential applies metadata changes and, when NewValue is set,
// re-encrypts the secret under the current default engine and key.
func (s *VaultService) UpdateCredential(ctx context.Context, name, serviceID string, req UpdateRequest) error {
	if name == "" || serviceID == "" {
		return fmt.Errorf("%w: name and serviceID are required", driven.ErrInvalidInput)
	}
	if req.NewValue != nil && *req.NewValue == "" {
		return fmt.Errorf("%w: new value must not be blank", driven.ErrInvalidInput)
	}

	lockKey := writeLockKey(name, serviceID)
	s.writeLocks.Lock(lockKey)
	defer s.writeLocks.Unlock(lockKey)

	cred, err := s.fetchActive(ctx, name, serviceID)
	if err != nil {
		s.logAccess(ctx, "", name, serviceID, model.AccessTypeUpdate, err)
		return err
	}

	if req.Description != nil {
		cred.Description = *req.Description
	}
	if req.Environment != nil {
		cred.Environment = *req.Environment
	}
	if req.ExpiresAt != nil {
		cred.ExpiresAt = req.ExpiresAt
	}
	if req.NewValue != nil {
		if err := s.reencrypt(cred, *req.NewValue); err != nil {
			s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeUpdate, err)
			return fmt.Errorf("update credential %q: %w", name, err)
		}
	}

	err = s.persistUpdate(ctx, cred)
	s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeUpdate, err)
	if err != nil {
		return fmt.Errorf("update credential %q: %w", name, err)
	}

	slog.Info("credential updated",
		"name", name, "service_id", serviceID, "value_changed", req.NewValue != nil)
	return nil
}

// RotateCredential replaces the stored blob with newPlaintext encrypted
// under the current default engine and key version. Identity fields (id,
// name, owner, service) are untouched. The old blob is discarded: callers
// needing historical recovery must back it up before rotating.
func (s *VaultService) RotateCredential(ctx context.Context, name, serviceID, newPlaintext string) error {
	if name == "" || serviceID == "" || newPlaintext == "" {
		return fmt.Errorf("%w: name, serviceID, and new value are required", driven.ErrInvalidInput)
	}

	lockKey := writeLockKey(name, serviceID)
	s.writeLocks.Lock(lockKey)
	defer s.writeLocks.Unlock(lockKey)

	cred, err := s.fetchActive(ctx, name, serviceID)
	if err != nil {
		s.logAccess(ctx, "", name, serviceID, model.AccessTypeRotate, err)
		return err
	}

	if err := s.reencrypt(cred, newPlaintext); err != nil {
		s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeRotate, err)
		return fmt.Errorf("rotate credential %q: %w", name, err)
	}

	err = s.persistUpdate(ctx, cred)
	s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeRotate, err)
	if err != nil {
		return fmt.Errorf("rotate credential %q: %w", name, err)
	}

	slog.Info("credential rotated",
		"name", name, "service_id", serviceID,
		"algorithm", cred.AlgorithmID, "key_version", cred.KeyVersion)
	return nil
}

// DeleteCredential soft-deletes the credential: the row and ciphertext are
// retained for audit, but every subsequent lookup reports ErrNotFound so
// deletion is indistinguishable from absence.
func (s *VaultService) DeleteCredential(ctx context.Context, name, serviceID string) error {
	if name == "" || serviceID == "" {
		return fmt.Errorf("%w: name and serviceID are required", driven.ErrInvalidInput)
	}

	lockKey := writeLockKey(name, serviceID)
	s.writeLocks.Lock(lockKey)
	defer s.writeLocks.Unlock(lockKey)

	accessor := AccessorFromContext(ctx)
	err := s.storeCall(ctx, func(ctx context.Context) error {
		return s.creds.SoftDelete(ctx, name, serviceID, accessor.ID)
	})
	s.logAccess(ctx, "", name, serviceID, model.AccessTypeDelete, err)
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", name, err)
	}

	slog.Info("credential deleted", "name", name, "service_id", serviceID)
	return nil
}

// ListExpiringCredentials returns active credentials whose expiry falls
// within the next withinDays days. Pure read; expired credentials are
// reported, never auto-deleted.
func (s *VaultService) ListExpiringCredentials(ctx context.Context, withinDays int) ([]model.CredentialSummary, error) {
	if withinDays < 0 {
		return nil, fmt.Errorf("%w: withinDays must not be negative", driven.ErrInvalidInput)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, withinDays)
	var creds []model.Credential
	err := s.storeCall(ctx, func(ctx context.Context) error {
		var err error
		creds, err = s.creds.ListExpiringBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list expiring credentials: %w", err)
	}

	return summaries(creds), nil
}

// ValidateCredential decrypts the stored secret and compares it to the
// candidate in constant time, exposing only a boolean to the caller.
func (s *VaultService) ValidateCredential(ctx context.Context, name, serviceID, candidate string) (bool, error) {
	if name == "" || serviceID == "" {
		return false, fmt.Errorf("%w: name and serviceID are required", driven.ErrInvalidInput)
	}

	cred, err := s.fetchActive(ctx, name, serviceID)
	if err != nil {
		s.logAccess(ctx, "", name, serviceID, model.AccessTypeDecrypt, err)
		return false, err
	}

	plaintext, err := s.decrypt(cred)
	s.logAccess(ctx, cred.ID, name, serviceID, model.AccessTypeDecrypt, err)
	if err != nil {
		return false, fmt.Errorf("credential unavailable: %w", err)
	}

	match := subtle.ConstantTimeCompare(plaintext, []byte(candidate)) == 1
	zero(plaintext)
	return match, nil
}

// ListByService returns metadata for all active credentials of a service.
func (s *VaultService) ListByService(ctx context.Context, serviceID string) ([]model.CredentialSummary, error) {
	if serviceID == "" {
		return nil, fmt.Errorf("%w: serviceID is required", driven.ErrInvalidInput)
	}

	var creds []model.Credential
	err := s.storeCall(ctx, func(ctx context.Context) error {
		var err error
		creds, err = s.creds.ListByService(ctx, serviceID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list credentials for service %q: %w", serviceID, err)
	}
	return summaries(creds), nil
}

// ListByOwner returns metadata for all active credentials of an owner.
func (s *VaultService) ListByOwner(ctx context.Context, ownerID string) ([]model.CredentialSummary, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: ownerID is required", driven.ErrInvalidInput)
	}

	var creds []model.Credential
	err := s.storeCall(ctx, func(ctx context.Context) error {
		var err error
		creds, err = s.creds.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list credentials for owner %q: %w", ownerID, err)
	}
	return summaries(creds), nil
}

// SupportedAlgorithms lists the algorithm identifiers the vault can
// decrypt, for diagnostics and API discovery.
func (s *VaultService) SupportedAlgorithms() []string {
	return s.engines.Algorithms()
}

// --- internals ---

func (s *VaultService) fetchActive(ctx context.Context, name, serviceID string) (*model.Credential, error) {
	var cred *model.Credential
	err := s.storeCall(ctx, func(ctx context.Context) error {
		var err error
		cred, err = s.creds.GetByNameAndService(ctx, name, serviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// decrypt resolves the engine and historical key recorded on the row and
// opens the blob.
func (s *VaultService) decrypt(cred *model.Credential) ([]byte, error) {
	key, err := s.keys.Key(cred.KeyVersion)
	if err != nil {
		return nil, err
	}
	return s.engines.Resolve(cred.AlgorithmID).Decrypt(cred.CiphertextBlob, key)
}

// reencrypt seals value under the current default engine and key, updating
// the blob, algorithm, and key version in place.
func (s *VaultService) reencrypt(cred *model.Credential, value string) error {
	engine := s.engines.Default()
	keyVersion, key, err := s.keys.Current()
	if err != nil {
		return fmt.Errorf("resolve current key: %w", err)
	}

	plaintext := []byte(value)
	blob, err := engine.Encrypt(plaintext, key)
	zero(plaintext)
	if err != nil {
		return err
	}

	cred.CiphertextBlob = blob
	cred.AlgorithmID = engine.AlgorithmID()
	cred.KeyVersion = keyVersion
	return nil
}

func (s *VaultService) persistUpdate(ctx context.Context, cred *model.Credential) error {
	cred.UpdatedAt = time.Now().UTC()
	cred.UpdatedBy = AccessorFromContext(ctx).ID
	return s.storeCall(ctx, func(ctx context.Context) error {
		return s.creds.Update(ctx, *cred)
	})
}

// logAccess appends an access log entry for the attempt. Logging failures
// are reported but never fail the operation itself.
func (s *VaultService) logAccess(ctx context.Context, credentialID, name, serviceID string, accessType model.AccessType, opErr error) {
	accessor := AccessorFromContext(ctx)
	entry := model.AccessLogEntry{
		CredentialID:   credentialID,
		CredentialName: name,
		ServiceID:      serviceID,
		Accessor:       accessor.ID,
		AccessType:     accessType,
		Success:        opErr == nil,
		ErrorDetail:    errorKind(opErr),
		ClientIP:       accessor.ClientIP,
		UserAgent:      accessor.UserAgent,
	}

	// Use a fresh timeout: the operation's context may already be expired,
	// and failed attempts must be logged too.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if err := s.accessLog.Append(logCtx, entry); err != nil {
		slog.Warn("access log append failed",
			"name", name, "service_id", serviceID, "access_type", string(accessType), "error", err)
	}
}

// errorKind reduces an operation error to its sentinel kind for the access
// log, keeping cipher diagnostics and store internals out of durable rows.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, driven.ErrNotFound):
		return "not found"
	case errors.Is(err, driven.ErrDecryptionFailed):
		return "decryption failed"
	case errors.Is(err, driven.ErrEncryptionFailed):
		return "encryption failed"
	case errors.Is(err, driven.ErrKeyVersionUnknown):
		return "unknown key version"
	case errors.Is(err, driven.ErrDuplicateCredential):
		return "duplicate credential"
	case errors.Is(err, driven.ErrConflict):
		return "concurrent modification"
	case errors.Is(err, driven.ErrStoreUnavailable):
		return "store unavailable"
	case errors.Is(err, driven.ErrInvalidInput):
		return "invalid input"
	default:
		return "internal error"
	}
}

func validateStoreRequest(req StoreRequest) error {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if req.Value == "" {
		missing = append(missing, "value")
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		missing = append(missing, "ownerId")
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		missing = append(missing, "serviceId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", driven.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown credential type %q", driven.ErrInvalidInput, string(req.Type))
	}
	return nil
}

func writeLockKey(name, serviceID string) string {
	return serviceID + "\x00" + name
}

func credID(cred *model.Credential) string {
	if cred == nil {
		return ""
	}
	return cred.ID
}

func summaries(creds []model.Credential) []model.CredentialSummary {
	out := make([]model.CredentialSummary, 0, len(creds))
	for _, cred := range creds {
		out = append(out, cred.Summary())
	}
	return out
}

// zero scrubs a plaintext buffer once the operation that needed it is done.
// runtime.KeepAlive stops the compiler from eliding the writes.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
