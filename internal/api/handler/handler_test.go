package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/usecase"
)

// mockObjectStore provides a configurable mock for ObjectStore.
type mockObjectStore struct {
	headObjectFn func(ctx context.Context, key string) (*model.ObjectMetadata, error)
	getRangeFn   func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error)
	listPageFn   func(ctx context.Context, prefix, token string) (*model.ListPage, error)
	presignGetFn func(ctx context.Context, key string, ttl time.Duration) (string, error)
	probeFn      func(ctx context.Context) model.HealthStatus

	calls int
}

func (m *mockObjectStore) HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error) {
	m.calls++
	if m.headObjectFn != nil {
		return m.headObjectFn(ctx, key)
	}
	return &model.ObjectMetadata{}, nil
}

func (m *mockObjectStore) GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
	m.calls++
	if m.getRangeFn != nil {
		return m.getRangeFn(ctx, key, start, end)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockObjectStore) ListPage(ctx context.Context, prefix, token string) (*model.ListPage, error) {
	m.calls++
	if m.listPageFn != nil {
		return m.listPageFn(ctx, prefix, token)
	}
	return &model.ListPage{}, nil
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.calls++
	if m.presignGetFn != nil {
		return m.presignGetFn(ctx, key, ttl)
	}
	return "http://example.com/" + key, nil
}

func (m *mockObjectStore) Probe(ctx context.Context) model.HealthStatus {
	m.calls++
	if m.probeFn != nil {
		return m.probeFn(ctx)
	}
	return model.NewHealthyStatus("media")
}

func (m *mockObjectStore) Bucket() string {
	return "media"
}

// objectStore serves a single in-memory object at key.
func objectStore(key string, content []byte) *mockObjectStore {
	return &mockObjectStore{
		headObjectFn: func(ctx context.Context, k string) (*model.ObjectMetadata, error) {
			if k != key {
				return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, k)
			}
			return &model.ObjectMetadata{
				Size:         int64(len(content)),
				ETag:         `"v1"`,
				LastModified: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			}, nil
		},
		getRangeFn: func(ctx context.Context, k string, start, end uint64) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(string(content[start : end+1]))), nil
		},
	}
}

func newTestRouter(store *mockObjectStore, cfg usecase.Config) http.Handler {
	svc := usecase.NewMediaService(store, cfg)
	videos := NewVideoHandler(svc, 3600)
	presign := NewPresignHandler(svc)
	health := NewHealthHandler(svc, "test")

	r := chi.NewRouter()
	r.Get("/", health.Index)
	r.Get("/health", health.Health)
	r.Get("/livez", health.Live)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/videos", videos.List)
		r.Get("/videos/*", videos.Stream)
		r.Head("/videos/*", videos.Stream)
		r.Get("/presign", presign.Get)
	})
	return r
}
