package memoize

import (
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigValidation tests Config.validate() with various scenarios.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config with credentials",
			config: Config{
				Endpoint:  "localhost:9000",
				Bucket:    "test-bucket",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
			},
			wantErr: false,
		},
		{
			name: "valid config with client",
			config: Config{
				Client: &minio.Client{},
				Bucket: "test-bucket",
			},
			wantErr: false,
		},
		{
			name: "valid config with unlimited size",
			config: Config{
				Client:  &minio.Client{},
				Bucket:  "test-bucket",
				MaxSize: Unlimited,
			},
			wantErr: false,
		},
		{
			name: "missing bucket",
			config: Config{
				Endpoint:  "localhost:9000",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
			},
			wantErr: true,
			errMsg:  "bucket is required",
		},
		{
			name: "missing endpoint without client",
			config: Config{
				Bucket:    "test-bucket",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
			},
			wantErr: true,
			errMsg:  "endpoint is required",
		},
		{
			name: "missing access key without client",
			config: Config{
				Endpoint:  "localhost:9000",
				Bucket:    "test-bucket",
				SecretKey: "minioadmin",
			},
			wantErr: true,
			errMsg:  "access key is required",
		},
		{
			name: "missing secret key without client",
			config: Config{
				Endpoint:  "localhost:9000",
				Bucket:    "test-bucket",
				AccessKey: "minioadmin",
			},
			wantErr: true,
			errMsg:  "secret key is required",
		},
		{
			name: "negative max size",
			config: Config{
				Client:  &minio.Client{},
				Bucket:  "test-bucket",
				MaxSize: -2,
			},
			wantErr: true,
			errMsg:  "max size must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

// TestConfigMaxSize verifies resolution of the configured bound.
func TestConfigMaxSize(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		want    int
	}{
		{name: "zero applies default", maxSize: 0, want: DefaultMaxSize},
		{name: "unlimited disables bound", maxSize: Unlimited, want: 0},
		{name: "positive value kept", maxSize: 42, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{MaxSize: tt.maxSize}
			assert.Equal(t, tt.want, cfg.maxSize())
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "empty stays empty", prefix: "", want: ""},
		{name: "bare name gets trailing slash", prefix: "fib", want: "fib/"},
		{name: "surrounding slashes trimmed", prefix: "/fib/", want: "fib/"},
		{name: "nested prefix preserved", prefix: "caches/fib", want: "caches/fib/"},
		{name: "only slashes collapse to empty", prefix: "///", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePrefix(tt.prefix))
		})
	}
}
