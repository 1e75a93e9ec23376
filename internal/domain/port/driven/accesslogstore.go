package driven

import (
	"context"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// AccessLogStore defines the driven port for the append-only access log.
// There is deliberately no update or delete: entries are immutable once
// written.
type AccessLogStore interface {
	// Append records one access attempt. ID and CreatedAt are assigned by
	// the store.
	Append(ctx context.Context, entry model.AccessLogEntry) error

	// ListByCredential returns the most recent entries for a credential
	// name within a service, newest first, capped at limit.
	ListByCredential(ctx context.Context, name, serviceID string, limit int) ([]model.AccessLogEntry, error)
}
