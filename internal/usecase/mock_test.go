package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/hszk-dev/mediagate/internal/domain/model"
)

// mockObjectStore provides a configurable mock for ObjectStore.
type mockObjectStore struct {
	headObjectFn func(ctx context.Context, key string) (*model.ObjectMetadata, error)
	getRangeFn   func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error)
	listPageFn   func(ctx context.Context, prefix, token string) (*model.ListPage, error)
	presignGetFn func(ctx context.Context, key string, ttl time.Duration) (string, error)
	probeFn      func(ctx context.Context) model.HealthStatus
}

func (m *mockObjectStore) HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error) {
	if m.headObjectFn != nil {
		return m.headObjectFn(ctx, key)
	}
	return &model.ObjectMetadata{}, nil
}

func (m *mockObjectStore) GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
	if m.getRangeFn != nil {
		return m.getRangeFn(ctx, key, start, end)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockObjectStore) ListPage(ctx context.Context, prefix, token string) (*model.ListPage, error) {
	if m.listPageFn != nil {
		return m.listPageFn(ctx, prefix, token)
	}
	return &model.ListPage{}, nil
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.presignGetFn != nil {
		return m.presignGetFn(ctx, key, ttl)
	}
	return "http://example.com/" + key, nil
}

func (m *mockObjectStore) Probe(ctx context.Context) model.HealthStatus {
	if m.probeFn != nil {
		return m.probeFn(ctx)
	}
	return model.NewHealthyStatus("media")
}

func (m *mockObjectStore) Bucket() string {
	return "media"
}
