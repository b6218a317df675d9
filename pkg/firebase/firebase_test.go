package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthClient_RejectsBadCredentialPaths(t *testing.T) {
	ctx := context.Background()

	_, err := NewAuthClient(ctx, Options{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	missing := filepath.Join(t.TempDir(), "service-account.json")
	_, err = NewAuthClient(ctx, Options{CredentialsPath: missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = NewAuthClient(ctx, Options{CredentialsPath: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}
