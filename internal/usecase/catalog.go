package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/mediagate/internal/domain/model"
)

// maxListPages bounds pagination against a backend that never stops
// reporting truncated pages.
const maxListPages = 10000

// ListVideos implements MediaService.
// Concurrent callers share one in-flight listing; results are never kept
// beyond that call.
func (s *mediaService) ListVideos(ctx context.Context) ([]model.VideoObject, error) {
	v, err, shared := s.listing.Do(s.cfg.Prefix, func() (any, error) {
		return s.listAll(context.WithoutCancel(ctx))
	})
	if shared {
		slog.DebugContext(ctx, "joined in-flight video listing", slog.String("prefix", s.cfg.Prefix))
	}
	if err != nil {
		return nil, err
	}

	// Each caller gets its own slice.
	videos := v.([]model.VideoObject)
	out := make([]model.VideoObject, len(videos))
	copy(out, videos)
	return out, nil
}

func (s *mediaService) listAll(ctx context.Context) ([]model.VideoObject, error) {
	videos := make([]model.VideoObject, 0)
	token := ""

	for pages := 0; ; pages++ {
		if pages >= maxListPages {
			return nil, fmt.Errorf("list %s: gave up after %d pages", s.cfg.Prefix, pages)
		}

		page, err := s.store.ListPage(ctx, s.cfg.Prefix, token)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.cfg.Prefix, err)
		}

		for _, obj := range page.Objects {
			if obj.IsPlaceholder() {
				continue
			}
			videos = append(videos, obj)
		}

		if !page.HasMore() {
			return videos, nil
		}
		token = page.NextToken
	}
}
