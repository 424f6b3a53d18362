package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/infrastructure/metrics"
	"github.com/hszk-dev/mediagate/internal/usecase"
)

// PresignHandler issues presigned download URLs.
type PresignHandler struct {
	svc usecase.MediaService
}

// NewPresignHandler creates a new PresignHandler.
func NewPresignHandler(svc usecase.MediaService) *PresignHandler {
	return &PresignHandler{svc: svc}
}

// Get handles GET /v1/presign?object_key=...&expires_in=...
func (h *PresignHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := usecase.PresignInput{ObjectKey: q.Get("object_key")}

	if raw := q.Get("expires_in"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			metrics.PresignRequestsTotal.WithLabelValues(metrics.PresignInvalid).Inc()
			Error(w, http.StatusBadRequest, CodeValidationFailed, "expires_in must be a whole number of seconds")
			return
		}
		input.ExpiresIn = &v
	}

	out, err := h.svc.PresignURL(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	metrics.PresignRequestsTotal.WithLabelValues(metrics.PresignSuccess).Inc()
	JSON(w, http.StatusOK, out)
}

func (h *PresignHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *usecase.ValidationError

	switch {
	case errors.As(err, &verr):
		metrics.PresignRequestsTotal.WithLabelValues(metrics.PresignInvalid).Inc()
		Error(w, http.StatusBadRequest, CodeValidationFailed, verr.Error())
	case errors.Is(err, repository.ErrInvalidKey):
		metrics.PresignRequestsTotal.WithLabelValues(metrics.PresignInvalid).Inc()
		Error(w, http.StatusBadRequest, CodeInvalidObjectKey, "Object key is not valid")
	default:
		metrics.PresignRequestsTotal.WithLabelValues(metrics.PresignError).Inc()
		slog.ErrorContext(r.Context(), "failed to presign url", slog.String("error", err.Error()))
		Error(w, http.StatusInternalServerError, CodePresignFailed, "Failed to generate presigned URL")
	}
}
