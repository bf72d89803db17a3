package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objstore-backend/internal/infrastructure/repositories"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "objstore-backend", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Settings.HTTPAddr)
	assert.Equal(t, repositories.RepositoryTypeMemory, cfg.Repository.Type)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
settings:
  http-addr: ":9090"
repository:
  type: mongodb
  mongodb:
    uri: mongodb://mongo:27017
    databasePrefix: objstore_
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Settings.HTTPAddr)
	assert.Equal(t, repositories.RepositoryTypeMongoDB, cfg.Repository.Type)
	require.NotNil(t, cfg.Repository.Mongo)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Repository.Mongo.URI)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("REPOSITORY_TYPE", "memory")

	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Settings.HTTPAddr)
	assert.Equal(t, repositories.RepositoryTypeMemory, cfg.Repository.Type)
}

func TestValidate(t *testing.T) {
	t.Run("unsupported backend", func(t *testing.T) {
		cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Repository.Type = repositories.RepositoryType("cassandra")
		assert.Error(t, cfg.Validate())
	})

	t.Run("mongodb requires a uri", func(t *testing.T) {
		cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Repository.Type = repositories.RepositoryTypeMongoDB
		cfg.Repository.Mongo.URI = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("dynamodb requires a table", func(t *testing.T) {
		cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Repository.Type = repositories.RepositoryTypeDynamoDB
		cfg.Repository.Dynamo.Table = ""
		assert.Error(t, cfg.Validate())
	})
}
