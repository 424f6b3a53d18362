package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/infrastructure/metrics"
	"github.com/hszk-dev/mediagate/internal/usecase"
)

// Request/Response types

type VideoListResponse struct {
	Videos []model.VideoObject `json:"videos"`
	Count  int                 `json:"count"`
}

// VideoHandler handles media listing and streaming requests.
type VideoHandler struct {
	svc          usecase.MediaService
	cacheControl string
}

// NewVideoHandler creates a new VideoHandler.
// cacheMaxAge is the max-age, in seconds, advertised on stream responses.
func NewVideoHandler(svc usecase.MediaService, cacheMaxAge int) *VideoHandler {
	return &VideoHandler{
		svc:          svc,
		cacheControl: cacheControlValue(cacheMaxAge),
	}
}

// List handles GET /v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListVideos(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list videos", slog.String("error", err.Error()))
		Error(w, http.StatusInternalServerError, CodeVideoListFailed, "Failed to list videos")
		return
	}

	JSON(w, http.StatusOK, VideoListResponse{
		Videos: videos,
		Count:  len(videos),
	})
}

// Stream handles GET and HEAD /v1/videos/*
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoPath, err := videoPathParam(r)
	if err != nil {
		Error(w, http.StatusBadRequest, CodeInvalidVideoPath, "Video path is not valid percent-encoding")
		return
	}

	plan, err := h.svc.PlanStream(ctx, videoPath, r.Header.Get("Range"))
	if err != nil {
		h.handlePlanError(w, r, videoPath, err)
		return
	}

	if r.Method == http.MethodHead {
		writeStreamHeaders(w, plan, h.cacheControl)
		return
	}

	body, err := h.svc.OpenStream(ctx, plan)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.ErrorContext(ctx, "failed to open video stream",
			slog.String("key", plan.Key),
			slog.String("error", err.Error()),
		)
		Error(w, http.StatusInternalServerError, CodeVideoStreamFailed, "Failed to stream video")
		return
	}
	defer body.Close()

	writeStreamHeaders(w, plan, h.cacheControl)

	n, err := copyBody(w, body, plan.ContentLength())
	metrics.StreamedBytesTotal.Add(float64(n))
	if err != nil {
		metrics.StreamResponsesTotal.WithLabelValues(metrics.StreamAborted).Inc()
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "video stream interrupted",
				slog.String("key", plan.Key),
				slog.Int64("written", n),
				slog.Uint64("expected", plan.ContentLength()),
				slog.String("error", err.Error()),
			)
		}
		// Headers are already on the wire; reset the connection rather than
		// end a response whose length does not match Content-Length.
		panic(http.ErrAbortHandler)
	}

	metrics.StreamResponsesTotal.WithLabelValues(streamResult(plan)).Inc()
}

func (h *VideoHandler) handlePlanError(w http.ResponseWriter, r *http.Request, videoPath string, err error) {
	var rangeErr *usecase.RangeNotSatisfiableError

	switch {
	case errors.Is(err, usecase.ErrInvalidVideoPath):
		Error(w, http.StatusBadRequest, CodeInvalidVideoPath, "Video path must be non-empty and must not contain '..'")
	case errors.As(err, &rangeErr):
		metrics.StreamResponsesTotal.WithLabelValues(metrics.StreamRangeRejected).Inc()
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatUint(rangeErr.Size, 10))
		Error(w, http.StatusRequestedRangeNotSatisfiable, CodeRangeNotSatisfiable, "Requested range cannot be satisfied")
	case errors.Is(err, context.Canceled):
		return
	default:
		// Any metadata failure is reported as not found; backend detail stays in the log.
		level := slog.LevelWarn
		if errors.Is(err, repository.ErrObjectNotFound) {
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "video metadata lookup failed",
			slog.String("path", videoPath),
			slog.String("error", err.Error()),
		)
		Error(w, http.StatusNotFound, CodeVideoNotFound, "Video not found")
	}
}

// videoPathParam returns the decoded wildcard path. chi matches on RawPath
// when the client's escaping differs from Go's default, leaving the
// parameter percent-encoded.
func videoPathParam(r *http.Request) (string, error) {
	p := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return p, nil
	}
	return url.PathUnescape(p)
}

func streamResult(plan *usecase.StreamPlan) string {
	switch {
	case plan.Partial:
		return metrics.StreamPartial
	case plan.RangeIgnored:
		return metrics.StreamRangeFallback
	default:
		return metrics.StreamFull
	}
}
