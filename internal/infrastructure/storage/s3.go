package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
)

// s3API defines the subset of the S3 API used by S3Store.
// *s3.Client satisfies this interface.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// s3Presigner is satisfied by *s3.PresignClient.
type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ s3API       = (*s3.Client)(nil)
	_ s3Presigner = (*s3.PresignClient)(nil)
)

// S3Config holds configuration for the S3 backend.
// Setting AccountID without Endpoint targets Cloudflare R2.
type S3Config struct {
	Endpoint     string
	AccountID    string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// endpoint resolves the base endpoint; empty means the SDK default for Region.
func (c S3Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	}
	return ""
}

// S3Store implements repository.ObjectStore on AWS S3 or Cloudflare R2.
type S3Store struct {
	client    s3API
	presigner s3Presigner
	bucket    string
}

var _ repository.ObjectStore = (*S3Store)(nil)

// NewS3Store creates an S3-backed store with static credentials.
func NewS3Store(ctx context.Context, cfg S3Config, tc TransportConfig) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	httpClient := &http.Client{
		Transport: newTransport(http.DefaultTransport.(*http.Transport), tc),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := cfg.endpoint(); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3StoreWithClient(client, s3.NewPresignClient(client), cfg.Bucket), nil
}

// newS3StoreWithClient is used for dependency injection in tests.
func newS3StoreWithClient(client s3API, presigner s3Presigner, bucket string) *S3Store {
	return &S3Store{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
	}
}

// HeadObject returns metadata for key without reading its body.
func (s *S3Store) HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
		}
		return nil, backendError("head object", err)
	}

	return &model.ObjectMetadata{
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// GetRange opens a stream over bytes [start, end] of key.
// Caller is responsible for closing the returned ReadCloser.
func (s *S3Store) GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
		}
		return nil, backendError("get object", err)
	}

	return out.Body, nil
}

// ListPage returns one page of objects under prefix.
func (s *S3Store) ListPage(ctx context.Context, prefix, continuationToken string) (*model.ListPage, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(listPageSize),
	}
	if continuationToken != "" {
		in.ContinuationToken = aws.String(continuationToken)
	}

	out, err := s.client.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, backendError("list objects", err)
	}

	page := &model.ListPage{
		Objects:   make([]model.VideoObject, 0, len(out.Contents)),
		NextToken: aws.ToString(out.NextContinuationToken),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		// Entries without a key, size or timestamp are skipped.
		if obj.Key == nil || obj.Size == nil || obj.LastModified == nil {
			continue
		}
		page.Objects = append(page.Objects, model.VideoObject{
			Name:         *obj.Key,
			Size:         *obj.Size,
			LastModified: *obj.LastModified,
		})
	}

	return page, nil
}

// PresignGet creates a presigned URL for downloading key.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := validatePresignKey(key); err != nil {
		return "", err
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: %w", repository.ErrPresignFailed, err)
	}
	return req.URL, nil
}

// Probe verifies the bucket is reachable.
func (s *S3Store) Probe(ctx context.Context) model.HealthStatus {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return model.NewUnhealthyStatus(s.bucket, err)
	}
	return model.NewHealthyStatus(s.bucket)
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
