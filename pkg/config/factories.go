package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/trellisfs/trellis/internal/logger"
	"github.com/trellisfs/trellis/pkg/namespace"
	contentMemory "github.com/trellisfs/trellis/pkg/store/content/memory"
	contentS3 "github.com/trellisfs/trellis/pkg/store/content/s3"
	nodesBadger "github.com/trellisfs/trellis/pkg/store/nodes/badger"
	nodesMemory "github.com/trellisfs/trellis/pkg/store/nodes/memory"
	nodesPostgres "github.com/trellisfs/trellis/pkg/store/nodes/postgres"
)

// NodeBackend is the full surface a node backend provides: the node table,
// the domain registry, the fid metadata side-store, and a lifecycle.
type NodeBackend interface {
	namespace.NodeStore
	namespace.DomainRegistry
	namespace.MetaStore
	Close() error
}

// CreateNodeBackend creates a node store based on configuration.
//
// This factory uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the
// corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/nodes/memory (ephemeral)
//   - "badger": Uses pkg/store/nodes/badger (embedded, persistent)
//   - "postgres": Uses pkg/store/nodes/postgres (shared, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Node store configuration
//
// Returns:
//   - NodeBackend: Initialized node backend
//   - error: Configuration or initialization error
func CreateNodeBackend(ctx context.Context, cfg *NodesConfig) (NodeBackend, error) {
	switch cfg.Type {
	case "memory":
		return nodesMemory.NewStore(), nil
	case "badger":
		return createBadgerNodeBackend(ctx, cfg.Badger)
	case "postgres":
		return createPostgresNodeBackend(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown node store type: %q (supported: memory, badger, postgres)", cfg.Type)
	}
}

// createBadgerNodeBackend creates a BadgerDB-backed node store.
func createBadgerNodeBackend(ctx context.Context, options map[string]any) (NodeBackend, error) {
	var storeCfg nodesBadger.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger node store config: %w", err)
	}

	if storeCfg.Path == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger node store: path is required unless in_memory is set")
	}

	store, err := nodesBadger.NewStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger node store: %w", err)
	}

	return store, nil
}

// createPostgresNodeBackend creates a PostgreSQL-backed node store.
func createPostgresNodeBackend(ctx context.Context, options map[string]any) (NodeBackend, error) {
	var storeCfg nodesPostgres.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode postgres node store config: %w", err)
	}

	if storeCfg.DSN == "" {
		return nil, fmt.Errorf("postgres node store: dsn is required")
	}

	store, err := nodesPostgres.NewStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres node store: %w", err)
	}

	return store, nil
}

// CreateContentStore creates a content store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/store/content/memory (ephemeral)
//   - "s3": Uses pkg/store/content/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//
// Returns:
//   - namespace.ContentStore: Initialized content store
//   - error: Configuration or initialization error
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (namespace.ContentStore, error) {
	switch cfg.Type {
	case "memory":
		return contentMemory.NewStore(), nil
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q (supported: memory, s3)", cfg.Type)
	}
}

// createS3ContentStore builds the AWS client and the S3 content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (namespace.ContentStore, error) {
	type S3Options struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		FetchWorkers    int    `mapstructure:"fetch_workers"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3Options
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint support for MinIO, Localstack, etc.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default chain.
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack.
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := contentS3.NewContentStore(ctx, contentS3.Config{
		Client:       client,
		Bucket:       storeCfg.Bucket,
		KeyPrefix:    storeCfg.KeyPrefix,
		FetchWorkers: storeCfg.FetchWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
