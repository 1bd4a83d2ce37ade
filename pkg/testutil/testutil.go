// Package testutil provides shared helpers for service tests.
package testutil

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/credential-service/pkg/storage"
)

// TestDatabases is the storage matrix service tests run against.
var TestDatabases = []struct {
	Name           string
	ServiceStorage func(t *testing.T) storage.ServiceStorage
}{
	{
		Name:           "Test with Bolt DB",
		ServiceStorage: setupBoltTestDB,
	},
	{
		Name:           "Test with Redis DB",
		ServiceStorage: setupRedisTestDB,
	},
}

// NewMemoryStorage returns a fresh in-memory storage for lightweight tests.
func NewMemoryStorage(t *testing.T) storage.ServiceStorage {
	s := new(storage.MemoryDB)
	require.NoError(t, s.Init())
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func setupBoltTestDB(t *testing.T) storage.ServiceStorage {
	file, err := os.CreateTemp("", "bolt")
	require.NoError(t, err)
	name := file.Name()
	require.NoError(t, file.Close())

	s := new(storage.BoltDB)
	err = s.Init(storage.Option{
		ID:     storage.BoltDBFilePathOption,
		Option: name,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.Remove(name)
	})
	return s
}

func setupRedisTestDB(t *testing.T) storage.ServiceStorage {
	server := miniredis.RunT(t)
	s := new(storage.RedisDB)
	err := s.Init(
		storage.Option{
			ID:     storage.RedisAddressOption,
			Option: server.Addr(),
		},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
