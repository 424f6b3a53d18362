package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
)

// minioClient defines the subset of the MinIO API used by MinIOStore.
// *minio.Core satisfies this interface; the abstraction allows unit testing with mocks.
//
// Core is used instead of Client because Core.GetObject issues the request
// immediately and hands back the raw response body, so ranged reads stream
// straight from the socket, and Core.ListObjectsV2 exposes continuation tokens.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
	ListObjectsV2(bucketName, objectPrefix, startAfter, continuationToken, delimiter string, maxkeys int) (minio.ListBucketV2Result, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

var _ minioClient = (*minio.Core)(nil)

// MinIOConfig holds configuration for the MinIO backend.
type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string // Optional: external-facing endpoint for presigned URLs
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

// MinIOStore implements repository.ObjectStore on a MinIO (or any S3-compatible) server.
type MinIOStore struct {
	client          minioClient
	presignedClient minioClient // Separate client for presigned URLs (may use public endpoint)
	bucket          string
}

var _ repository.ObjectStore = (*MinIOStore)(nil)

// NewMinIOStore creates a MinIO-backed store.
// If PublicEndpoint is set, a separate client is created for presigned URL generation
// so that signatures match the host clients will actually call.
func NewMinIOStore(cfg MinIOConfig, tc TransportConfig) (*MinIOStore, error) {
	client, err := newMinioCore(cfg.Endpoint, cfg, tc)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	var presigned minioClient = client
	if cfg.PublicEndpoint != "" {
		pc, err := newMinioCore(cfg.PublicEndpoint, cfg, tc)
		if err != nil {
			return nil, fmt.Errorf("failed to create presigned minio client: %w", err)
		}
		presigned = pc
	}

	return newMinIOStoreWithClient(client, presigned, cfg.Bucket), nil
}

func newMinioCore(endpoint string, cfg MinIOConfig, tc TransportConfig) (*minio.Core, error) {
	base, err := minio.DefaultTransport(cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	return minio.NewCore(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(base, tc),
	})
}

// newMinIOStoreWithClient creates a MinIOStore with given minioClient implementations.
// This is used for dependency injection in tests.
func newMinIOStoreWithClient(client, presignedClient minioClient, bucket string) *MinIOStore {
	return &MinIOStore{
		client:          client,
		presignedClient: presignedClient,
		bucket:          bucket,
	}
}

// HeadObject returns metadata for key without reading its body.
func (s *MinIOStore) HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
		}
		return nil, backendError("stat object", err)
	}

	return &model.ObjectMetadata{
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// GetRange opens a stream over bytes [start, end] of key.
// Caller is responsible for closing the returned ReadCloser.
func (s *MinIOStore) GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(int64(start), int64(end)); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidRange, err)
	}

	body, _, _, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
		}
		return nil, backendError("get object", err)
	}

	return body, nil
}

// ListPage returns one page of objects under prefix.
func (s *MinIOStore) ListPage(ctx context.Context, prefix, continuationToken string) (*model.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.client.ListObjectsV2(s.bucket, prefix, "", continuationToken, "", listPageSize)
	if err != nil {
		return nil, backendError("list objects", err)
	}

	page := &model.ListPage{
		Objects:   make([]model.VideoObject, 0, len(res.Contents)),
		NextToken: res.NextContinuationToken,
		Truncated: res.IsTruncated,
	}
	for _, obj := range res.Contents {
		if obj.Key == "" {
			continue
		}
		page.Objects = append(page.Objects, model.VideoObject{
			Name:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return page, nil
}

// PresignGet creates a presigned URL for downloading key.
// Uses presignedClient which may be configured with a public endpoint.
func (s *MinIOStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := validatePresignKey(key); err != nil {
		return "", err
	}

	presignedURL, err := s.presignedClient.PresignedGetObject(ctx, s.bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("%w: %w", repository.ErrPresignFailed, err)
	}
	return presignedURL.String(), nil
}

// Probe verifies the bucket is reachable.
func (s *MinIOStore) Probe(ctx context.Context) model.HealthStatus {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return model.NewUnhealthyStatus(s.bucket, err)
	}
	if !exists {
		return model.NewUnhealthyStatus(s.bucket, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, s.bucket))
	}
	return model.NewHealthyStatus(s.bucket)
}

// Bucket returns the configured bucket name.
func (s *MinIOStore) Bucket() string {
	return s.bucket
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return true
	}
	return resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"
}
