package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccessLogStore = (*AccessLogRepo)(nil)

// AccessLogRepo is the SQLite implementation of the AccessLogStore port
// interface. Append-only: no update or delete statements exist here.
type AccessLogRepo struct {
	db *DB
}

// NewAccessLogRepo creates a new AccessLogRepo backed by the given DB.
func NewAccessLogRepo(db *DB) *AccessLogRepo {
	return &AccessLogRepo{db: db}
}

// Append records one access attempt.
func (r *AccessLogRepo) Append(ctx context.Context, entry model.AccessLogEntry) error {
	const query = `
		INSERT INTO access_log (credential_id, credential_name, service_id, accessor,
			access_type, success, error_detail, client_ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		entry.CredentialID, entry.CredentialName, entry.ServiceID, entry.Accessor,
		string(entry.AccessType), boolToInt(entry.Success), entry.ErrorDetail,
		entry.ClientIP, entry.UserAgent, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("append access log for %q: %w", entry.CredentialName, err)
	}
	return nil
}

// ListByCredential returns the most recent entries for (name, serviceID),
// newest first.
func (r *AccessLogRepo) ListByCredential(ctx context.Context, name, serviceID string, limit int) ([]model.AccessLogEntry, error) {
	const query = `
		SELECT id, credential_id, credential_name, service_id, accessor,
			access_type, success, error_detail, client_ip, user_agent, created_at
		FROM access_log
		WHERE credential_name = ? AND service_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, name, serviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list access log for %q: %w", name, err)
	}
	defer rows.Close()

	var entries []model.AccessLogEntry
	for rows.Next() {
		var entry model.AccessLogEntry
		var accessType string
		var success int
		var createdAt string

		err := rows.Scan(
			&entry.ID, &entry.CredentialID, &entry.CredentialName, &entry.ServiceID,
			&entry.Accessor, &accessType, &success, &entry.ErrorDetail,
			&entry.ClientIP, &entry.UserAgent, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan access log entry: %w", err)
		}

		entry.AccessType = model.AccessType(accessType)
		entry.Success = success != 0
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse access log created_at: %w", err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access log: %w", err)
	}

	return entries, nil
}
