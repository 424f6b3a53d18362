package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/infrastructure/metrics"
)

const tracerName = "github.com/hszk-dev/mediagate/internal/infrastructure/storage"

// InstrumentedStore decorates an ObjectStore with Prometheus metrics and
// OpenTelemetry spans. Every backend call goes through it.
type InstrumentedStore struct {
	next   repository.ObjectStore
	tracer trace.Tracer
}

var _ repository.ObjectStore = (*InstrumentedStore)(nil)

// NewInstrumented wraps next.
func NewInstrumented(next repository.ObjectStore) *InstrumentedStore {
	return &InstrumentedStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *InstrumentedStore) HeadObject(ctx context.Context, key string) (*model.ObjectMetadata, error) {
	ctx, finish := s.start(ctx, metrics.StorageOpHead, attribute.String("storage.key", key))
	meta, err := s.next.HeadObject(ctx, key)
	finish(err)
	return meta, err
}

func (s *InstrumentedStore) GetRange(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
	ctx, finish := s.start(ctx, metrics.StorageOpGetRange,
		attribute.String("storage.key", key),
		attribute.Int64("storage.range.start", int64(start)),
		attribute.Int64("storage.range.end", int64(end)),
	)
	body, err := s.next.GetRange(ctx, key, start, end)
	finish(err)
	return body, err
}

func (s *InstrumentedStore) ListPage(ctx context.Context, prefix, continuationToken string) (*model.ListPage, error) {
	ctx, finish := s.start(ctx, metrics.StorageOpList,
		attribute.String("storage.prefix", prefix),
		attribute.Bool("storage.continuation", continuationToken != ""),
	)
	page, err := s.next.ListPage(ctx, prefix, continuationToken)
	finish(err)
	return page, err
}

func (s *InstrumentedStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, finish := s.start(ctx, metrics.StorageOpPresign,
		attribute.String("storage.key", key),
		attribute.Int64("storage.presign.ttl_seconds", int64(ttl/time.Second)),
	)
	url, err := s.next.PresignGet(ctx, key, ttl)
	finish(err)
	return url, err
}

func (s *InstrumentedStore) Probe(ctx context.Context) model.HealthStatus {
	ctx, finish := s.start(ctx, metrics.StorageOpProbe)
	status := s.next.Probe(ctx)
	if status.IsHealthy() {
		finish(nil)
	} else {
		finish(errors.New(status.Error))
	}
	return status
}

func (s *InstrumentedStore) Bucket() string {
	return s.next.Bucket()
}

// start opens a span for op and returns a func that records the outcome.
func (s *InstrumentedStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	attrs = append(attrs, attribute.String("storage.bucket", s.next.Bucket()))
	ctx, span := s.tracer.Start(ctx, "storage."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, func(err error) {
		status := operationStatus(err)
		metrics.StorageOperationsTotal.WithLabelValues(op, status).Inc()
		metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())

		span.SetAttributes(attribute.String("storage.status", status))
		if status == metrics.StorageStatusError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func operationStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StorageStatusSuccess
	case errors.Is(err, repository.ErrObjectNotFound):
		return metrics.StorageStatusNotFound
	case errors.Is(err, context.Canceled):
		return metrics.StorageStatusCanceled
	default:
		return metrics.StorageStatusError
	}
}
