package mongo

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectionConfig holds MongoDB connection configuration
type ConnectionConfig struct {
	URI            string        `yaml:"uri" env:"MONGO_URI"`
	DatabasePrefix string        `yaml:"databasePrefix" env:"MONGO_DATABASE_PREFIX"`
	MaxPoolSize    uint64        `yaml:"maxPoolSize" env:"MONGO_MAX_POOL_SIZE"`
	ConnectTimeout time.Duration `yaml:"connectTimeout" env:"MONGO_CONNECT_TIMEOUT"`
}

// DefaultConnectionConfig returns production-ready defaults
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		URI:            "mongodb://localhost:27017",
		DatabasePrefix: "objstore_",
		MaxPoolSize:    100,
		ConnectTimeout: 30 * time.Second,
	}
}

// ConnectionManager owns the MongoDB client for the process lifetime.
// Connection establishment is idempotent and may happen lazily on first use.
type ConnectionManager struct {
	config ConnectionConfig

	mu     sync.Mutex
	client *mongo.Client
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.DatabasePrefix == "" {
		config.DatabasePrefix = DefaultConnectionConfig().DatabasePrefix
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectionConfig().ConnectTimeout
	}
	return &ConnectionManager{config: config}
}

// Connect establishes and verifies the connection, retrying transient
// failures with bounded exponential backoff. Calling it again is a no-op.
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.client != nil {
		return nil
	}

	opts := options.Client().
		ApplyURI(cm.config.URI).
		SetMaxPoolSize(cm.config.MaxPoolSize)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cm.config.ConnectTimeout

	var client *mongo.Client
	operation := func() error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(ctx)
			return err
		}
		client = c
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return errors.Wrap(err, "failed to connect to MongoDB")
	}

	cm.client = client
	return nil
}

// Client returns the connected client, connecting lazily on first use
func (cm *ConnectionManager) Client(ctx context.Context) (*mongo.Client, error) {
	cm.mu.Lock()
	client := cm.client
	cm.mu.Unlock()
	if client != nil {
		return client, nil
	}
	if err := cm.Connect(ctx); err != nil {
		return nil, err
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.client, nil
}

// Close disconnects the client
func (cm *ConnectionManager) Close(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.client == nil {
		return nil
	}
	err := cm.client.Disconnect(ctx)
	cm.client = nil
	return err
}

// DatabasePrefix returns the configured tenant database prefix
func (cm *ConnectionManager) DatabasePrefix() string {
	return cm.config.DatabasePrefix
}
