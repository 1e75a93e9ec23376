package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. Rows carry ciphertext blobs and metadata only. Uniqueness of
// (name, service_id) is enforced by the schema, and updates are guarded by
// a record_version compare-and-swap so concurrent rotations cannot silently
// overwrite each other.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialColumns = `id, name, description, type, ciphertext, algorithm, key_version,
	owner_id, service_id, environment, active, expires_at,
	created_at, updated_at, created_by, updated_by, record_version`

// Insert persists a new credential. The schema's UNIQUE(name, service_id)
// constraint surfaces as ErrDuplicateCredential.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential) error {
	const query = `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.Name, cred.Description, string(cred.Type),
		cred.CiphertextBlob, cred.AlgorithmID, cred.KeyVersion,
		cred.OwnerID, cred.ServiceID, cred.Environment,
		boolToInt(cred.Active), formatNullableTime(cred.ExpiresAt),
		formatTime(cred.CreatedAt), formatTime(cred.UpdatedAt),
		cred.CreatedBy, cred.UpdatedBy, cred.RecordVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s for service %s", driven.ErrDuplicateCredential, cred.Name, cred.ServiceID)
		}
		return fmt.Errorf("insert credential %q: %w", cred.Name, err)
	}
	return nil
}

// GetByNameAndService returns the active credential for (name, serviceID).
func (r *CredentialRepo) GetByNameAndService(ctx context.Context, name, serviceID string) (*model.Credential, error) {
	const query = `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE name = ? AND service_id = ? AND active = 1
	`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, name, serviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s for service %s", driven.ErrNotFound, name, serviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", name, err)
	}
	return cred, nil
}

// GetByID returns the credential with the given id, active or not.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	const query = `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = ?
	`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %s", driven.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential by id %s: %w", id, err)
	}
	return cred, nil
}

// ListByService returns all active credentials owned by the service.
func (r *CredentialRepo) ListByService(ctx context.Context, serviceID string) ([]model.Credential, error) {
	const query = `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE service_id = ? AND active = 1
		ORDER BY name
	`
	return r.queryCredentials(ctx, query, serviceID)
}

// ListByOwner returns all active credentials with the given owner.
func (r *CredentialRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error) {
	const query = `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_id = ? AND active = 1
		ORDER BY name
	`
	return r.queryCredentials(ctx, query, ownerID)
}

// ListExpiringBefore returns active credentials expiring before the cutoff.
func (r *CredentialRepo) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.Credential, error) {
	const query = `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE active = 1 AND expires_at IS NOT NULL AND expires_at < ?
		ORDER BY expires_at
	`
	return r.queryCredentials(ctx, query, formatTime(cutoff))
}

// Update replaces the credential's mutable fields, guarded by the record
// version. RowsAffected 0 means either the row vanished (ErrNotFound) or a
// concurrent writer bumped the version first (ErrConflict).
func (r *CredentialRepo) Update(ctx context.Context, cred model.Credential) error {
	const query = `
		UPDATE credentials
		SET description = ?, type = ?, ciphertext = ?, algorithm = ?, key_version = ?,
			environment = ?, active = ?, expires_at = ?, updated_at = ?, updated_by = ?,
			record_version = record_version + 1
		WHERE id = ? AND record_version = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		cred.Description, string(cred.Type), cred.CiphertextBlob, cred.AlgorithmID, cred.KeyVersion,
		cred.Environment, boolToInt(cred.Active), formatNullableTime(cred.ExpiresAt),
		formatTime(cred.UpdatedAt), cred.UpdatedBy,
		cred.ID, cred.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("update credential %s: %w", cred.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential %s: rows affected: %w", cred.ID, err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, cred.ID); errors.Is(err, driven.ErrNotFound) {
			return fmt.Errorf("update credential: %w: id %s", driven.ErrNotFound, cred.ID)
		}
		return fmt.Errorf("update credential %s: %w", cred.ID, driven.ErrConflict)
	}
	return nil
}

// SoftDelete marks the active credential inactive. The row and its
// ciphertext stay behind for the audit trail.
func (r *CredentialRepo) SoftDelete(ctx context.Context, name, serviceID, deletedBy string) error {
	const query = `
		UPDATE credentials
		SET active = 0, updated_at = ?, updated_by = ?, record_version = record_version + 1
		WHERE name = ? AND service_id = ? AND active = 1
	`

	res, err := r.db.Writer.ExecContext(ctx, query, formatTime(time.Now().UTC()), deletedBy, name, serviceID)
	if err != nil {
		return fmt.Errorf("soft delete credential %q: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete credential %q: rows affected: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s for service %s", driven.ErrNotFound, name, serviceID)
	}
	return nil
}

func (r *CredentialRepo) queryCredentials(ctx context.Context, query string, args ...any) ([]model.Credential, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return creds, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var credType string
	var active int
	var expiresAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&cred.ID, &cred.Name, &cred.Description, &credType,
		&cred.CiphertextBlob, &cred.AlgorithmID, &cred.KeyVersion,
		&cred.OwnerID, &cred.ServiceID, &cred.Environment,
		&active, &expiresAt, &createdAt, &updatedAt,
		&cred.CreatedBy, &cred.UpdatedBy, &cred.RecordVersion,
	)
	if err != nil {
		return nil, err
	}

	cred.Type = model.CredentialType(credType)
	cred.Active = active != 0

	if expiresAt.Valid {
		t, err := parseTime(expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse expires_at: %w", err)
		}
		cred.ExpiresAt = &t
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

// timeFormat keeps stored timestamps lexicographically comparable, so the
// expiry cutoff can be a plain string comparison in SQL.
const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
