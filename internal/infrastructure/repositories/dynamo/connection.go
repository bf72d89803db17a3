package dynamo

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// Config holds DynamoDB connection configuration. Endpoint is optional and
// mainly serves local development against DynamoDB Local.
type Config struct {
	Region          string        `yaml:"region" env:"DYNAMO_REGION"`
	Endpoint        string        `yaml:"endpoint" env:"DYNAMO_ENDPOINT"`
	Table           string        `yaml:"table" env:"DYNAMO_TABLE"`
	AccessKeyID     string        `yaml:"accessKeyId" env:"DYNAMO_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secretAccessKey" env:"DYNAMO_SECRET_ACCESS_KEY"`
	ConnectTimeout  time.Duration `yaml:"connectTimeout" env:"DYNAMO_CONNECT_TIMEOUT"`
}

// DefaultConfig returns production-ready defaults
func DefaultConfig() Config {
	return Config{
		Region:         "us-east-1",
		Table:          "objstore_resources",
		ConnectTimeout: 30 * time.Second,
	}
}

// ConnectionManager owns the DynamoDB client for the process lifetime.
// Connection establishment is idempotent and may happen lazily on first use.
type ConnectionManager struct {
	config Config

	mu     sync.Mutex
	client *dynamodb.Client
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(config Config) *ConnectionManager {
	if config.Table == "" {
		config.Table = DefaultConfig().Table
	}
	if config.Region == "" {
		config.Region = DefaultConfig().Region
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	return &ConnectionManager{config: config}
}

// Connect builds the client and verifies the table is reachable, retrying
// transient failures with bounded exponential backoff. Calling it again is a
// no-op.
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.client != nil {
		return nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cm.config.Region),
	}
	if cm.config.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cm.config.AccessKeyID, cm.config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS configuration")
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cm.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(cm.config.Endpoint)
		}
	})

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cm.config.ConnectTimeout

	operation := func() error {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(cm.config.Table),
		})
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return errors.Wrapf(err, "failed to reach DynamoDB table %s", cm.config.Table)
	}

	cm.client = client
	return nil
}

// Client returns the connected client, connecting lazily on first use
func (cm *ConnectionManager) Client(ctx context.Context) (*dynamodb.Client, error) {
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

// Close releases the client reference; the SDK client holds no persistent
// connections needing teardown
func (cm *ConnectionManager) Close(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.client = nil
	return nil
}

// Table returns the configured table name
func (cm *ConnectionManager) Table() string {
	return cm.config.Table
}
