package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/httprange"
)

// MediaService defines the read-only media operations served over HTTP.
type MediaService interface {
	// ListVideos returns every object under the media prefix, following
	// pagination to the end. Directory placeholders are skipped.
	ListVideos(ctx context.Context) ([]model.VideoObject, error)

	// PlanStream resolves videoPath to an object key, fetches fresh metadata
	// and decides which byte window to serve for rangeHeader.
	PlanStream(ctx context.Context, videoPath, rangeHeader string) (*StreamPlan, error)

	// OpenStream opens the backend body for plan.
	// Caller is responsible for closing the returned ReadCloser.
	OpenStream(ctx context.Context, plan *StreamPlan) (io.ReadCloser, error)

	// PresignURL validates input and issues a signed GET URL.
	PresignURL(ctx context.Context, input PresignInput) (*model.PresignedURL, error)

	// Health probes the storage backend.
	Health(ctx context.Context) model.HealthStatus
}

// Config holds configuration for MediaService.
type Config struct {
	Prefix       string
	StrictRanges bool

	PresignMinExpiry     uint64 // seconds
	PresignMaxExpiry     uint64 // seconds
	PresignDefaultExpiry uint64 // seconds
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:               "videos/",
		PresignMinExpiry:     60,
		PresignMaxExpiry:     3600,
		PresignDefaultExpiry: 600,
	}
}

type mediaService struct {
	store    repository.ObjectStore
	cfg      Config
	validate *validator.Validate
	listing  singleflight.Group
}

// NewMediaService creates a new MediaService instance.
func NewMediaService(store repository.ObjectStore, cfg Config) MediaService {
	return &mediaService{
		store:    store,
		cfg:      cfg,
		validate: newValidator(),
	}
}

// StreamPlan is the outcome of metadata lookup and range negotiation for
// one media request.
type StreamPlan struct {
	Key          string
	Size         uint64
	Window       httprange.Window
	Partial      bool
	RangeIgnored bool // an unusable Range header was replaced by the whole object
	ETag         string
	LastModified time.Time
}

// ContentLength is the number of body bytes the response will carry.
func (p *StreamPlan) ContentLength() uint64 {
	if p.Size == 0 {
		return 0
	}
	return p.Window.Len()
}

// HasBody reports whether the backend needs to be read at all.
func (p *StreamPlan) HasBody() bool {
	return p.Size > 0
}

// PlanStream implements MediaService.
func (s *mediaService) PlanStream(ctx context.Context, videoPath, rangeHeader string) (*StreamPlan, error) {
	key, err := s.videoKey(videoPath)
	if err != nil {
		return nil, err
	}

	meta, err := s.store.HeadObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", key, err)
	}

	size := uint64(0)
	if meta.Size > 0 {
		size = uint64(meta.Size)
	}

	plan := &StreamPlan{
		Key:          key,
		Size:         size,
		ETag:         meta.ETag,
		LastModified: meta.LastModified,
	}

	if rangeHeader == "" {
		plan.Window, _ = httprange.Whole(size)
		return plan, nil
	}

	w, err := httprange.Parse(rangeHeader, size)
	if err != nil {
		if s.cfg.StrictRanges {
			return nil, &RangeNotSatisfiableError{Header: rangeHeader, Size: size}
		}
		slog.DebugContext(ctx, "ignoring unusable range header",
			slog.String("key", key),
			slog.String("range", rangeHeader),
			slog.Uint64("size", size),
		)
		plan.Window, _ = httprange.Whole(size)
		plan.RangeIgnored = true
		return plan, nil
	}

	plan.Window = w
	plan.Partial = true
	return plan, nil
}

// OpenStream implements MediaService.
func (s *mediaService) OpenStream(ctx context.Context, plan *StreamPlan) (io.ReadCloser, error) {
	if !plan.HasBody() {
		return io.NopCloser(strings.NewReader("")), nil
	}

	body, err := s.store.GetRange(ctx, plan.Key, plan.Window.Start, plan.Window.End)
	if err != nil {
		return nil, fmt.Errorf("open %s [%d-%d]: %w", plan.Key, plan.Window.Start, plan.Window.End, err)
	}
	return body, nil
}

// Health implements MediaService.
func (s *mediaService) Health(ctx context.Context) model.HealthStatus {
	status := s.store.Probe(ctx)
	if !status.IsHealthy() {
		slog.WarnContext(ctx, "storage probe failed",
			slog.String("bucket", status.BucketName),
			slog.Bool("bucket_exists", status.BucketExists),
			slog.String("error", status.Error),
		)
	}
	return status
}

// videoKey maps a request path onto an object key under the media prefix.
func (s *mediaService) videoKey(videoPath string) (string, error) {
	p := strings.TrimPrefix(videoPath, "/")
	if p == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidVideoPath)
	}
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoPath, videoPath)
	}
	return s.cfg.Prefix + p, nil
}
