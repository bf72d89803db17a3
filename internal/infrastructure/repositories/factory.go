package repositories

import (
	"context"

	"github.com/pkg/errors"

	"objstore-backend/internal/domain/ports"
	"objstore-backend/internal/infrastructure/repositories/dynamo"
	"objstore-backend/internal/infrastructure/repositories/mem"
	"objstore-backend/internal/infrastructure/repositories/mongo"
	"objstore-backend/internal/infrastructure/resilience"
)

// RepositoryType represents the type of repository backend
type RepositoryType string

const (
	RepositoryTypeMemory   RepositoryType = "memory"
	RepositoryTypeMongoDB  RepositoryType = "mongodb"
	RepositoryTypeDynamoDB RepositoryType = "dynamodb"
)

// Config holds configuration for the repository factory
type Config struct {
	Type RepositoryType `yaml:"type" env:"REPOSITORY_TYPE"`

	// MongoDB configuration
	Mongo *mongo.ConnectionConfig `yaml:"mongodb,omitempty"`

	// DynamoDB configuration
	Dynamo *dynamo.Config `yaml:"dynamodb,omitempty"`

	// CircuitBreaker, when present, wraps the adapter in the resilience
	// decorator
	CircuitBreaker *resilience.Config `yaml:"circuitBreaker,omitempty"`
}

// DefaultConfig returns default configuration for the repository factory
func DefaultConfig() Config {
	mongoCfg := mongo.DefaultConnectionConfig()
	dynamoCfg := dynamo.DefaultConfig()
	return Config{
		Type:   RepositoryTypeMemory,
		Mongo:  &mongoCfg,
		Dynamo: &dynamoCfg,
	}
}

// Product is the composed repository the factory returns. Breaker is nil when
// no resilience configuration was supplied; callers needing the breaker check
// the handle instead of probing the repository's capabilities at runtime.
type Product struct {
	Repository ports.Repository
	Breaker    *resilience.CircuitBreaker
}

// Factory creates repository instances based on configuration
type Factory struct {
	config Config
}

// NewFactory creates a new repository factory
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// CreateRepository builds the configured backend adapter, wrapping it in the
// circuit breaker when resilience is configured. Composition happens once at
// construction time; there is no runtime backend switching.
func (f *Factory) CreateRepository(ctx context.Context) (*Product, error) {
	var repo ports.Repository

	switch f.config.Type {
	case RepositoryTypeMemory:
		repo = mem.NewRepository()
	case RepositoryTypeMongoDB:
		if f.config.Mongo == nil {
			return nil, errors.New("mongodb configuration is required")
		}
		conn := mongo.NewConnectionManager(*f.config.Mongo)
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		repo = mongo.NewRepository(conn)
	case RepositoryTypeDynamoDB:
		if f.config.Dynamo == nil {
			return nil, errors.New("dynamodb configuration is required")
		}
		conn := dynamo.NewConnectionManager(*f.config.Dynamo)
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		repo = dynamo.NewRepository(conn)
	default:
		return nil, errors.Errorf("unsupported repository type: %s", f.config.Type)
	}

	if f.config.CircuitBreaker != nil {
		breaker := resilience.NewCircuitBreaker(*f.config.CircuitBreaker)
		return &Product{
			Repository: resilience.NewRepository(repo, breaker),
			Breaker:    breaker,
		}, nil
	}
	return &Product{Repository: repo}, nil
}
