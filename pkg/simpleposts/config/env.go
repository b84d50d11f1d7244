package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the flat environment surface, bound with cleanenv.
//
// Environment variable mapping:
//
//	PORT         - Server port (default: "8080")
//	ENVIRONMENT  - Runtime environment (default: "development")
//	DATABASE_URL - "memory" (default) or a postgres:// connection string
//	STORAGE_URL  - one of:
//	               - "memory://" (default)
//	               - "file:///path/to/data?prefix=http://host/media"
//	               - "s3://bucket?region=us-east-1&endpoint=...&path_style=true"
//	ASSET_NAMESPACE - blob store folder for cover images (default: "blog-posts")
//	JWT_SECRET      - HMAC secret for principal tokens
//
// S3 credentials come from AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY or the
// default AWS credential chain. S3_PUBLIC_BASE_URL overrides the public URL
// prefix baked into image references.
type envConfig struct {
	Port            string `env:"PORT" env-default:"8080"`
	Environment     string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL     string `env:"DATABASE_URL" env-default:""`
	StorageURL      string `env:"STORAGE_URL" env-default:""`
	Namespace       string `env:"ASSET_NAMESPACE" env-default:""`
	JWTSecret       string `env:"JWT_SECRET" env-default:""`
	AWSAccessKey    string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	AWSSecretKey    string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL" env-default:""`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if env.Namespace != "" {
			c.Namespace = env.Namespace
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}

		if err := applyDatabaseEnv(env, c); err != nil {
			return err
		}
		return applyStorageEnv(env, c)
	}
}

func applyDatabaseEnv(env envConfig, c *ServerConfig) error {
	dbURL := env.DatabaseURL

	if dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

func applyStorageEnv(env envConfig, c *ServerConfig) error {
	storageURL := env.StorageURL

	if storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.StorageType = "memory"
		return nil
	}

	parsed, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch parsed.Scheme {
	case "file":
		c.StorageType = "fs"
		c.FS.BaseDir = parsed.Path
		c.FS.URLPrefix = parsed.Query().Get("prefix")
		if c.FS.URLPrefix == "" {
			c.FS.URLPrefix = "/media"
		}
		return nil
	case "s3":
		c.StorageType = "s3"
		c.S3.Bucket = parsed.Host
		c.S3.Region = parsed.Query().Get("region")
		c.S3.Endpoint = parsed.Query().Get("endpoint")
		c.S3.UsePathStyle = parsed.Query().Get("path_style") == "true"
		c.S3.CreateBucket = parsed.Query().Get("create_bucket") == "true"
		c.S3.AccessKeyID = env.AWSAccessKey
		c.S3.SecretAccessKey = env.AWSSecretKey
		c.S3.PublicBaseURL = env.S3PublicBaseURL
		return nil
	}

	return fmt.Errorf("unsupported STORAGE_URL scheme: %s (use memory://, file:// or s3://)", parsed.Scheme)
}
