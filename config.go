package memoize

import (
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
)

// DefaultMaxSize is the entry bound applied when Config.MaxSize is zero.
const DefaultMaxSize = 128

// Unlimited disables the entry bound entirely. With an unlimited cache no
// eviction ever runs; only an expiration rule (SetExpiration) or an explicit
// Clear removes entries.
const Unlimited = -1

// Policy selects how a bounded cache chooses its eviction victim.
type Policy int

const (
	// PolicyFIFO evicts the entry written earliest among those stored.
	PolicyFIFO Policy = iota

	// PolicyLRU refreshes an entry's recency on every read and evicts the
	// entry read least recently.
	PolicyLRU
)

// Config holds the bucket binding and cache parameters for a memoized
// function.
type Config struct {
	// Endpoint is the object-storage server URL (e.g., "localhost:9000")
	Endpoint string

	// Bucket is the bucket holding the cached entries. The bucket must
	// already exist.
	Bucket string

	// AccessKey is the access key ID for authentication
	AccessKey string

	// SecretKey is the secret access key for authentication
	SecretKey string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Prefix is an optional prefix for all entry keys. Two memoized
	// functions sharing one bucket must use distinct prefixes (or distinct
	// buckets); nothing else keeps their keys apart.
	Prefix string

	// Client is an optional pre-configured MinIO client.
	// If provided, Endpoint/AccessKey/SecretKey/UseSSL are ignored.
	Client *minio.Client

	// MaxSize bounds the number of stored entries. Zero applies
	// DefaultMaxSize; Unlimited disables the bound. Any other non-positive
	// value is rejected.
	MaxSize int

	// Typed makes the argument types part of the cache key, so calls like
	// f(1) and f(1.0) occupy distinct entries.
	Typed bool
}

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + Bucket + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "bucket is required")
	}

	if c.MaxSize < Unlimited {
		return errors.Newf(errors.CodeInvalidConfig,
			"max size must be a positive integer, zero or Unlimited, got %d", c.MaxSize)
	}

	// If Client is provided, the connection fields are ignored
	if c.Client != nil {
		return nil
	}

	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}

	return nil
}

// maxSize resolves the configured bound: 0 means no bound, anything positive
// is the bound itself.
func (c *Config) maxSize() int {
	switch c.MaxSize {
	case Unlimited:
		return 0
	case 0:
		return DefaultMaxSize
	default:
		return c.MaxSize
	}
}

// normalizePrefix trims surrounding slashes and appends a single trailing
// slash so prefix+key never produces double slashes. An empty prefix stays
// empty.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
