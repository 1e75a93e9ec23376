package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// CredentialStore defines the driven port for credential persistence.
// Implementations persist ciphertext blobs and metadata only; plaintext
// never crosses this interface.
type CredentialStore interface {
	// Insert persists a new credential. Returns ErrDuplicateCredential when
	// an active credential with the same (name, serviceID) already exists.
	Insert(ctx context.Context, cred model.Credential) error

	// GetByNameAndService returns the active credential for (name, serviceID).
	// Returns ErrNotFound when there is no active match; inactive rows are
	// not reported.
	GetByNameAndService(ctx context.Context, name, serviceID string) (*model.Credential, error)

	// GetByID returns the credential with the given id, active or not.
	// Returns ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (*model.Credential, error)

	// ListByService returns all active credentials owned by the service,
	// ordered by name.
	ListByService(ctx context.Context, serviceID string) ([]model.Credential, error)

	// ListByOwner returns all active credentials with the given owner,
	// ordered by name.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error)

	// Update replaces the mutable fields of the credential identified by
	// cred.ID, atomically. The write only applies when the stored record
	// version equals cred.RecordVersion; otherwise ErrConflict is returned
	// and nothing changes.
	Update(ctx context.Context, cred model.Credential) error

	// SoftDelete marks the credential inactive and stamps updated_at /
	// updated_by. The row is retained for the audit trail. Returns
	// ErrNotFound when there is no active match.
	SoftDelete(ctx context.Context, name, serviceID, deletedBy string) error

	// ListExpiringBefore returns active credentials whose expires_at falls
	// before the cutoff, ordered by expires_at. Credentials without an
	// expiry are never reported.
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.Credential, error)
}
