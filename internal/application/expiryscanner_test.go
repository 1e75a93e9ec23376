package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

func TestExpiryScanner_ScanOnce(t *testing.T) {
	f := newVaultFixture(t, 1)
	ctx := context.Background()

	expired := time.Now().UTC().Add(-24 * time.Hour)
	soon := time.Now().UTC().Add(2 * 24 * time.Hour)
	later := time.Now().UTC().Add(60 * 24 * time.Hour)

	for _, req := range []StoreRequest{
		{Name: "already-gone", Type: model.CredentialTypeCertificate, Value: "v", OwnerID: "o", ServiceID: "edge", ExpiresAt: &expired},
		{Name: "closing-in", Type: model.CredentialTypeAPIKey, Value: "v", OwnerID: "o", ServiceID: "edge", ExpiresAt: &soon},
		{Name: "far-out", Type: model.CredentialTypeAPIKey, Value: "v", OwnerID: "o", ServiceID: "edge", ExpiresAt: &later},
	} {
		_, err := f.svc.Store(ctx, req)
		require.NoError(t, err)
	}

	scanner := NewExpiryScanner(f.svc, 7)
	count, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "expired and soon-to-expire, but not the distant one")
}

func TestExpiryScanner_EmptyVault(t *testing.T) {
	f := newVaultFixture(t, 1)

	scanner := NewExpiryScanner(f.svc, 7)
	count, err := scanner.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
