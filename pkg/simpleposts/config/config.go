package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-posts/pkg/simpleposts"
	memoryrepo "github.com/tendant/simple-posts/pkg/simpleposts/repo/memory"
	repopg "github.com/tendant/simple-posts/pkg/simpleposts/repo/postgres"
	fsstorage "github.com/tendant/simple-posts/pkg/simpleposts/storage/fs"
	memorystorage "github.com/tendant/simple-posts/pkg/simpleposts/storage/memory"
	s3storage "github.com/tendant/simple-posts/pkg/simpleposts/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		StorageType:        "memory",
		Namespace:          simpleposts.DefaultNamespace,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the simple-posts service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Storage configuration
	StorageType string // "memory", "fs", "s3"
	FS          FSConfig
	S3          S3Config

	// Namespace is the blob store folder holding cover images
	Namespace string

	// JWTSecret signs/verifies principal tokens on the HTTP surface
	JWTSecret string

	// Server options
	EnableEventLogging bool
}

// FSConfig holds filesystem storage options
type FSConfig struct {
	BaseDir   string
	URLPrefix string
}

// S3Config holds S3-compatible storage options
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	PublicBaseURL   string
	CreateBucket    bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FS.BaseDir == "" {
			return errors.New("fs base directory is required when using fs storage")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return errors.New("storage_type must be 'memory', 'fs' or 's3'")
	}

	if c.Namespace == "" {
		return errors.New("namespace is required")
	}

	if c.Environment == "production" && c.JWTSecret == "" {
		return errors.New("jwt secret is required in production")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simpleposts.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	options := []simpleposts.Option{
		simpleposts.WithRepository(repo),
		simpleposts.WithBlobStore(store),
		simpleposts.WithNamespace(c.Namespace),
	}
	if c.EnableEventLogging {
		options = append(options, simpleposts.WithEventSink(simpleposts.NewLoggingEventSink(slog.Default())))
	}

	return simpleposts.New(options...)
}

func (c *ServerConfig) buildRepository(ctx context.Context) (simpleposts.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildBlobStore() (simpleposts.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FS.BaseDir,
			URLPrefix: c.FS.URLPrefix,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			PublicBaseURL:          c.S3.PublicBaseURL,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
