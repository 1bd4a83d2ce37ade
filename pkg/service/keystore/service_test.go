package keystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/config"
	"github.com/ledgerworks/credential-service/pkg/testutil"
)

const (
	testSeed    = "sEdTM1uX8pu2do5XvTnutH6HsouMaM2"
	testAddress = "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewKeyStoreService(config.KeyStoreServiceConfig{
		BaseServiceConfig:  &config.BaseServiceConfig{Name: "keystore"},
		ServiceKeyPassword: "test-password",
	}, testutil.NewMemoryStorage(t))
	require.NoError(t, err)
	return service
}

func TestKeyStoreRequiresPassword(t *testing.T) {
	_, err := NewKeyStoreService(config.KeyStoreServiceConfig{
		BaseServiceConfig: &config.BaseServiceConfig{Name: "keystore"},
	}, testutil.NewMemoryStorage(t))
	assert.Error(t, err)
}

func TestStoreAndGetIssuerSeed(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	has, err := service.HasIssuerSeed(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, service.StoreIssuerSeed(ctx, testSeed))

	has, err = service.HasIssuerSeed(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	seed, err := service.GetIssuerSeed(ctx)
	require.NoError(t, err)
	assert.Equal(t, testSeed, seed)

	address, err := service.GetIssuerAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAddress, address)
}

func TestStoreInvalidSeed(t *testing.T) {
	service := newTestService(t)
	err := service.StoreIssuerSeed(context.Background(), "not-a-seed")
	assert.Error(t, err)
}

func TestSeedIsEncryptedAtRest(t *testing.T) {
	db := testutil.NewMemoryStorage(t)
	service, err := NewKeyStoreService(config.KeyStoreServiceConfig{
		BaseServiceConfig:  &config.BaseServiceConfig{Name: "keystore"},
		ServiceKeyPassword: "test-password",
	}, db)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.StoreIssuerSeed(ctx, testSeed))

	stored, err := db.Read(ctx, "keystore", "issuer-seed")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), testSeed)
}
