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

	"github.com/dopd-io/dopd/internal/logger"
	"github.com/dopd-io/dopd/pkg/store"
	storeBadger "github.com/dopd-io/dopd/pkg/store/badger"
	storeFs "github.com/dopd-io/dopd/pkg/store/fs"
	storeMemory "github.com/dopd-io/dopd/pkg/store/memory"
	storeS3 "github.com/dopd-io/dopd/pkg/store/s3"
)

// CreateObjectStore creates and initializes an object store based on
// configuration.
//
// The Type field selects the backend; the matching options map is decoded
// and passed to the backend's constructor. The returned store has had Init
// called and is ready for use.
//
// Supported types:
//   - "memory": in-process map, ephemeral
//   - "filesystem": local directory, one file per object
//   - "badger": embedded BadgerDB, persistent
//   - "s3": Amazon S3 or any S3-compatible endpoint
func CreateObjectStore(ctx context.Context, cfg *StorageConfig) (store.ObjectStore, error) {
	var (
		s   store.ObjectStore
		err error
	)

	switch cfg.Type {
	case "memory":
		s = storeMemory.New()
	case "filesystem":
		s, err = createFilesystemStore(cfg.Filesystem)
	case "badger":
		s, err = createBadgerStore(cfg.Badger)
	case "s3":
		s, err = createS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %q (supported: memory, filesystem, badger, s3)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Type, err)
	}

	return s, nil
}

// createFilesystemStore creates a filesystem-backed object store.
func createFilesystemStore(options map[string]any) (store.ObjectStore, error) {
	type FilesystemStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem store: path is required")
	}

	return storeFs.New(storeCfg.Path), nil
}

// createBadgerStore creates a BadgerDB-backed persistent object store.
func createBadgerStore(options map[string]any) (store.ObjectStore, error) {
	type BadgerStoreConfig struct {
		DBPath string `mapstructure:"db_path"`
	}

	var storeCfg BadgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}

	if storeCfg.DBPath == "" {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	return storeBadger.New(storeCfg.DBPath), nil
}

// createS3Store creates an S3-backed object store.
func createS3Store(ctx context.Context, options map[string]any) (store.ObjectStore, error) {
	type S3StoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3StoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Static credentials if provided, default credential chain otherwise.
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

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoint for MinIO, Localstack, etc. needs path-style
		// addressing.
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 store configured: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return storeS3.New(client, storeCfg.Bucket, storeCfg.KeyPrefix), nil
}
