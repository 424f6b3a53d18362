package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hszk-dev/mediagate/internal/domain/repository"
)

// Supported backend drivers.
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

// listPageSize is the number of keys requested per listing page.
const listPageSize = 1000

// TransportConfig bounds connect and response-header waits on backend calls.
// Body reads are unbounded so long range streams are not cut off.
type TransportConfig struct {
	ConnectTimeout        time.Duration
	ResponseHeaderTimeout time.Duration
}

// Config selects and configures a backend.
type Config struct {
	Driver    string
	MinIO     MinIOConfig
	S3        S3Config
	Transport TransportConfig
}

// New creates the configured ObjectStore, wrapped with metrics and tracing.
func New(ctx context.Context, cfg Config) (repository.ObjectStore, error) {
	var (
		store repository.ObjectStore
		err   error
	)

	switch strings.ToLower(cfg.Driver) {
	case "", DriverMinIO:
		store, err = NewMinIOStore(cfg.MinIO, cfg.Transport)
	case DriverS3:
		store, err = NewS3Store(ctx, cfg.S3, cfg.Transport)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return NewInstrumented(store), nil
}

// validatePresignKey rejects keys that cannot be addressed inside a bucket.
func validatePresignKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", repository.ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: key must not start with /", repository.ErrInvalidKey)
	}
	return nil
}

// validateWindow rejects windows that cannot be expressed as an int64 range.
func validateWindow(start, end uint64) error {
	if start > end {
		return fmt.Errorf("%w: start %d after end %d", repository.ErrInvalidRange, start, end)
	}
	if end > math.MaxInt64 {
		return fmt.Errorf("%w: end %d out of bounds", repository.ErrInvalidRange, end)
	}
	return nil
}

// backendError wraps err as a storage backend failure, keeping both chains.
// Context errors are returned unchanged so callers can tell a client
// disconnect apart from a backend failure.
func backendError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", repository.ErrStorageBackend, op, err)
}

func newTransport(base *http.Transport, cfg TransportConfig) *http.Transport {
	tr := base.Clone()
	if cfg.ConnectTimeout > 0 {
		tr.DialContext = (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	if cfg.ResponseHeaderTimeout > 0 {
		tr.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
	}
	return tr
}
