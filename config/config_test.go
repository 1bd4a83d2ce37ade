package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.NotEmpty(t, config)

	assert.False(t, config.Server.ReadTimeout.String() == "")
	assert.False(t, config.Server.WriteTimeout.String() == "")
	assert.False(t, config.Server.ShutdownTimeout.String() == "")
	assert.False(t, config.Server.APIHost == "")

	assert.NotEmpty(t, config.Services.StorageProvider)
	assert.NotEmpty(t, config.Services.LedgerConfig.Endpoint)
	assert.NotEmpty(t, config.Services.KeyStoreConfig.ServiceKeyPassword)
}
