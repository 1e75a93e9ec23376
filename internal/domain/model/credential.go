package model

import "time"

// Credential is the vault's central entity. The secret value is never
// stored; only CiphertextBlob is persisted, produced by the engine
// identified by AlgorithmID under the key identified by KeyVersion.
type Credential struct {
	ID             string // Opaque identifier, assigned at creation, immutable.
	Name           string
	Description    string
	Type           CredentialType
	CiphertextBlob string // base64(nonce || ciphertext || tag); opaque above the cipher layer.
	AlgorithmID    string
	KeyVersion     int
	OwnerID        string
	ServiceID      string
	Environment    string
	Active         bool
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      string
	UpdatedBy      string

	// RecordVersion is bumped on every write and checked at the store layer
	// to reject lost updates under concurrent rotation.
	RecordVersion int64
}

// Summary returns the caller-facing view of the credential. The ciphertext
// blob and the optimistic-lock counter stay inside the vault.
func (c Credential) Summary() CredentialSummary {
	return CredentialSummary{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
		AlgorithmID: c.AlgorithmID,
		KeyVersion:  c.KeyVersion,
		OwnerID:     c.OwnerID,
		ServiceID:   c.ServiceID,
		Environment: c.Environment,
		Active:      c.Active,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		CreatedBy:   c.CreatedBy,
		UpdatedBy:   c.UpdatedBy,
	}
}

// CredentialSummary is every Credential field except the ciphertext blob.
// All metadata operations return this shape; the raw secret is only ever
// returned by the distinct retrieve-value operation.
type CredentialSummary struct {
	ID          string
	Name        string
	Description string
	Type        CredentialType
	AlgorithmID string
	KeyVersion  int
	OwnerID     string
	ServiceID   string
	Environment string
	Active      bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
	UpdatedBy   string
}
