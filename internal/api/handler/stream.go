package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/hszk-dev/mediagate/internal/usecase"
)

const copyBufferSize = 64 << 10

var copyBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, copyBufferSize)
		return &b
	},
}

// writeStreamHeaders sets every header of a media response and the status line.
func writeStreamHeaders(w http.ResponseWriter, plan *usecase.StreamPlan, cacheControl string) {
	h := w.Header()
	h.Set("Content-Type", contentTypeFor(plan.Key))
	h.Set("Content-Length", strconv.FormatUint(plan.ContentLength(), 10))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", cacheControl)
	if plan.ETag != "" {
		h.Set("ETag", plan.ETag)
	}
	if !plan.LastModified.IsZero() {
		h.Set("Last-Modified", plan.LastModified.UTC().Format(http.TimeFormat))
	}

	if plan.Partial {
		h.Set("Content-Range", plan.Window.ContentRange(plan.Size))
		w.WriteHeader(http.StatusPartialContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// copyBody streams exactly want bytes from body to w. A short or failed copy
// is reported as an error; the status line has already been sent by then.
func copyBody(w io.Writer, body io.Reader, want uint64) (int64, error) {
	bp := copyBufPool.Get().(*[]byte)
	defer copyBufPool.Put(bp)

	n, err := io.CopyBuffer(w, body, *bp)
	if err != nil {
		return n, err
	}
	if uint64(n) != want {
		return n, fmt.Errorf("short body: copied %d of %d bytes", n, want)
	}
	return n, nil
}

func cacheControlValue(maxAge int) string {
	return "public, max-age=" + strconv.Itoa(maxAge)
}
