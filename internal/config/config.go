package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"objstore-backend/internal/infrastructure/repositories"
)

type (
	// Config is the application configuration
	Config struct {
		App        `yaml:"app"`
		Settings   `yaml:"settings"`
		Log        `yaml:"logger"`
		Repository repositories.Config `yaml:"repository"`
	}

	// App holds application identity
	App struct {
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	}

	// Log holds logging configuration
	Log struct {
		Level string `yaml:"log-level" env:"LOG_LEVEL"`
	}

	// Settings holds server settings
	Settings struct {
		HTTPAddr string `yaml:"http-addr" env:"HTTP_ADDR"`
	}
)

// NewConfig loads configuration from the YAML file at path (when it exists)
// with environment variable overrides applied on top
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}

	cfg.App.Name = "objstore-backend"
	cfg.App.Version = "dev"
	cfg.Settings.HTTPAddr = ":8080"
	cfg.Log.Level = "info"
	cfg.Repository = repositories.DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Repository.Type {
	case repositories.RepositoryTypeMemory:
	case repositories.RepositoryTypeMongoDB:
		if c.Repository.Mongo == nil || c.Repository.Mongo.URI == "" {
			return fmt.Errorf("repository type %s requires a mongodb uri", c.Repository.Type)
		}
	case repositories.RepositoryTypeDynamoDB:
		if c.Repository.Dynamo == nil || c.Repository.Dynamo.Table == "" {
			return fmt.Errorf("repository type %s requires a dynamodb table", c.Repository.Type)
		}
	default:
		return fmt.Errorf("unsupported repository type: %s", c.Repository.Type)
	}

	if c.Settings.HTTPAddr == "" {
		return fmt.Errorf("http-addr is required")
	}
	return nil
}
