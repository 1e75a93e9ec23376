package application

import (
	"context"
	"log/slog"
	"time"
)

// ExpiryScanner periodically reports credentials that are about to expire,
// or already have. It only reads and logs; expired credentials are never
// deleted automatically. External schedulers drive rotation from these
// reports.
type ExpiryScanner struct {
	vault    *VaultService
	warnDays int
}

// NewExpiryScanner creates a scanner reporting credentials expiring within
// warnDays days.
func NewExpiryScanner(vault *VaultService, warnDays int) *ExpiryScanner {
	return &ExpiryScanner{vault: vault, warnDays: warnDays}
}

// ScanOnce runs a single expiry scan and logs every finding. Returns the
// number of expiring credentials.
func (s *ExpiryScanner) ScanOnce(ctx context.Context) (int, error) {
	expiring, err := s.vault.ListExpiringCredentials(ctx, s.warnDays)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, cred := range expiring {
		if cred.ExpiresAt == nil {
			continue
		}
		if cred.ExpiresAt.Before(now) {
			slog.Warn("credential expired",
				"name", cred.Name, "service_id", cred.ServiceID,
				"owner_id", cred.OwnerID, "expired_at", cred.ExpiresAt)
			continue
		}
		slog.Warn("credential expiring soon",
			"name", cred.Name, "service_id", cred.ServiceID,
			"owner_id", cred.OwnerID, "expires_at", cred.ExpiresAt,
			"days_left", int(cred.ExpiresAt.Sub(now).Hours()/24))
	}

	return len(expiring), nil
}
