package repository

import (
	"context"
	"io"
	"time"

	"github.com/hszk-dev/mediagate/internal/domain/model"
)

// ObjectStore defines the capabilities the service needs from object storage.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3, R2)
// and must be safe for concurrent use.
type ObjectStore interface {
	// HeadObject returns size and type information for key.
	// Returns ErrObjectNotFound if the object does not exist.
	HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error)

	// GetRange streams bytes [start, end] (inclusive) of key.
	// The stream is read lazily from the backend and is bound to ctx.
	// Caller is responsible for closing the returned ReadCloser.
	GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error)

	// ListPage returns one page of objects under prefix.
	// An empty continuationToken requests the first page.
	ListPage(ctx context.Context, prefix, continuationToken string) (*model.ListPage, error)

	// PresignGet returns a GET URL signed for ttl.
	// Returns ErrInvalidKey for empty keys and keys starting with "/".
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Probe checks that the bucket is reachable. Failures are reported in the
	// returned status, never as an error.
	Probe(ctx context.Context) model.HealthStatus

	// Bucket returns the configured bucket name.
	Bucket() string
}
