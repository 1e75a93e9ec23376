package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

func TestAccessLogRepo_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccessLogRepo(db)
	ctx := context.Background()

	entries := []model.AccessLogEntry{
		{CredentialID: "c1", CredentialName: "stripe-key", ServiceID: "billing",
			Accessor: "svc-billing", AccessType: model.AccessTypeCreate, Success: true},
		{CredentialID: "c1", CredentialName: "stripe-key", ServiceID: "billing",
			Accessor: "svc-billing", AccessType: model.AccessTypeDecrypt, Success: true,
			ClientIP: "10.1.2.3", UserAgent: "billing-worker/1.4"},
		{CredentialID: "c1", CredentialName: "stripe-key", ServiceID: "billing",
			Accessor: "svc-billing", AccessType: model.AccessTypeDecrypt, Success: false,
			ErrorDetail: "decryption failed"},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	got, err := repo.ListByCredential(ctx, "stripe-key", "billing", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, model.AccessTypeDecrypt, got[0].AccessType)
	assert.False(t, got[0].Success)
	assert.Equal(t, "decryption failed", got[0].ErrorDetail)
	assert.Equal(t, model.AccessTypeCreate, got[2].AccessType)
	assert.Equal(t, "10.1.2.3", got[1].ClientIP)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestAccessLogRepo_ListHonorsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccessLogRepo(db)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, repo.Append(ctx, model.AccessLogEntry{
			CredentialName: "stripe-key", ServiceID: "billing",
			AccessType: model.AccessTypeDecrypt, Success: true,
		}))
	}

	got, err := repo.ListByCredential(ctx, "stripe-key", "billing", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAccessLogRepo_ListOtherCredentialEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccessLogRepo(db)

	got, err := repo.ListByCredential(context.Background(), "other", "billing", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
