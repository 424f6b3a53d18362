package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hszk-dev/mediagate/internal/domain/model"
	"github.com/hszk-dev/mediagate/internal/domain/repository"
	"github.com/hszk-dev/mediagate/internal/usecase"
)

var thousandBytes = []byte(strings.Repeat("0123456789", 100))

func TestVideoHandler_Stream(t *testing.T) {
	tests := []struct {
		name             string
		target           string
		rangeHeader      string
		wantStatusCode   int
		wantContentRange string
		wantLength       string
		wantBody         string
	}{
		{
			name:             "bounded range",
			target:           "/v1/videos/a.mp4",
			rangeHeader:      "bytes=100-199",
			wantStatusCode:   http.StatusPartialContent,
			wantContentRange: "bytes 100-199/1000",
			wantLength:       "100",
			wantBody:         string(thousandBytes[100:200]),
		},
		{
			name:             "open ended range",
			target:           "/v1/videos/a.mp4",
			rangeHeader:      "bytes=990-",
			wantStatusCode:   http.StatusPartialContent,
			wantContentRange: "bytes 990-999/1000",
			wantLength:       "10",
			wantBody:         "0123456789",
		},
		{
			name:           "no range",
			target:         "/v1/videos/a.mp4",
			wantStatusCode: http.StatusOK,
			wantLength:     "1000",
			wantBody:       string(thousandBytes),
		},
		{
			name:           "unsatisfiable range serves whole object",
			target:         "/v1/videos/a.mp4",
			rangeHeader:    "bytes=0-1000",
			wantStatusCode: http.StatusOK,
			wantLength:     "1000",
			wantBody:       string(thousandBytes),
		},
		{
			name:           "malformed range serves whole object",
			target:         "/v1/videos/a.mp4",
			rangeHeader:    "items=0-1",
			wantStatusCode: http.StatusOK,
			wantLength:     "1000",
			wantBody:       string(thousandBytes),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(objectStore("videos/a.mp4", thousandBytes), usecase.DefaultConfig())

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantStatusCode)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantContentRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantContentRange)
			}
			if got := rec.Header().Get("Content-Length"); got != tt.wantLength {
				t.Errorf("Content-Length = %q, want %q", got, tt.wantLength)
			}
			if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
				t.Errorf("Accept-Ranges = %q, want %q", got, "bytes")
			}
			if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
				t.Errorf("Content-Type = %q, want %q", got, "video/mp4")
			}
			if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
				t.Errorf("Cache-Control = %q, want %q", got, "public, max-age=3600")
			}
			if got := rec.Header().Get("ETag"); got != `"v1"` {
				t.Errorf("ETag = %q, want %q", got, `"v1"`)
			}
			if got := rec.Header().Get("Last-Modified"); got != "Thu, 02 Jan 2025 03:04:05 GMT" {
				t.Errorf("Last-Modified = %q", got)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body length = %d, want %d", rec.Body.Len(), len(tt.wantBody))
			}
		})
	}
}

func TestVideoHandler_Stream_NotFound(t *testing.T) {
	router := newTestRouter(objectStore("videos/a.mp4", thousandBytes), usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/missing.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != CodeVideoNotFound {
		t.Errorf("code = %q, want %q", resp.Code, CodeVideoNotFound)
	}
	if resp.Error != "Not Found" {
		t.Errorf("error = %q, want %q", resp.Error, "Not Found")
	}
}

func TestVideoHandler_Stream_InvalidPath(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"parent traversal", "/v1/videos/../etc/passwd"},
		{"nested traversal", "/v1/videos/a/../../b.mp4"},
		{"empty path", "/v1/videos/"},
		{"encoded parent traversal", "/v1/videos/%2e%2e/etc/passwd"},
		{"mixed case encoded traversal", "/v1/videos/a/%2E%2e/%2e%2E/b.mp4"},
		{"encoded slash traversal", "/v1/videos/..%2Fetc%2Fpasswd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := objectStore("videos/a.mp4", thousandBytes)
			router := newTestRouter(store, usecase.DefaultConfig())

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), CodeInvalidVideoPath) {
				t.Errorf("body = %s, want code %s", rec.Body.String(), CodeInvalidVideoPath)
			}
			if store.calls != 0 {
				t.Errorf("backend called %d times, want 0", store.calls)
			}
		})
	}
}

func TestVideoHandler_Stream_DecodesEscapedPath(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantKey string
	}{
		{"escaped slash", "/v1/videos/season%2F1/a.mp4", "videos/season/1/a.mp4"},
		{"escaped space", "/v1/videos/my%20clip.mp4", "videos/my clip.mp4"},
		{"escaped dot in name", "/v1/videos/a%2Emp4", "videos/a.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			store := objectStore(tt.wantKey, thousandBytes)
			head := store.headObjectFn
			store.headObjectFn = func(ctx context.Context, key string) (*model.ObjectMetadata, error) {
				keys = append(keys, key)
				return head(ctx, key)
			}
			router := newTestRouter(store, usecase.DefaultConfig())

			req := httptest.NewRequest(http.MethodHead, tt.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
			}
			if len(keys) != 1 || keys[0] != tt.wantKey {
				t.Errorf("HeadObject keys = %v, want [%s]", keys, tt.wantKey)
			}
		})
	}
}

func TestVideoHandler_Stream_BadEscape(t *testing.T) {
	store := objectStore("videos/a.mp4", thousandBytes)
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/a.mp4", nil)
	req.URL.RawPath = "/v1/videos/a%zz.mp4"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), CodeInvalidVideoPath) {
		t.Errorf("body = %s, want code %s", rec.Body.String(), CodeInvalidVideoPath)
	}
	if store.calls != 0 {
		t.Errorf("backend called %d times, want 0", store.calls)
	}
}

func TestVideoHandler_Stream_StrictRanges(t *testing.T) {
	cfg := usecase.DefaultConfig()
	cfg.StrictRanges = true
	router := newTestRouter(objectStore("videos/a.mp4", thousandBytes), cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/a.mp4", nil)
	req.Header.Set("Range", "bytes=2000-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusRequestedRangeNotSatisfiable)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Content-Range = %q, want %q", got, "bytes */1000")
	}
	if !strings.Contains(rec.Body.String(), CodeRangeNotSatisfiable) {
		t.Errorf("body = %s, want code %s", rec.Body.String(), CodeRangeNotSatisfiable)
	}
}

func TestVideoHandler_Stream_Head(t *testing.T) {
	store := objectStore("videos/a.mp4", thousandBytes)
	store.getRangeFn = func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
		t.Error("GetRange should not be called for HEAD")
		return nil, nil
	}
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodHead, "/v1/videos/a.mp4", nil)
	req.Header.Set("Range", "bytes=0-99")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusPartialContent)
	}
	if got := rec.Header().Get("Content-Length"); got != "100" {
		t.Errorf("Content-Length = %q, want %q", got, "100")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", rec.Body.Len())
	}
}

func TestVideoHandler_Stream_EmptyObject(t *testing.T) {
	store := objectStore("videos/empty.webm", nil)
	store.getRangeFn = func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
		t.Error("GetRange should not be called for an empty object")
		return nil, nil
	}
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/empty.webm", nil)
	req.Header.Set("Range", "bytes=0-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Length"); got != "0" {
		t.Errorf("Content-Length = %q, want %q", got, "0")
	}
	if got := rec.Header().Get("Content-Type"); got != "video/webm" {
		t.Errorf("Content-Type = %q, want %q", got, "video/webm")
	}
}

func TestVideoHandler_Stream_OpenFailure(t *testing.T) {
	store := objectStore("videos/a.mp4", thousandBytes)
	store.getRangeFn = func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
		return nil, fmt.Errorf("%w: connection reset", repository.ErrStorageBackend)
	}
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/a.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := rec.Body.String()
	if !strings.Contains(body, CodeVideoStreamFailed) {
		t.Errorf("body = %s, want code %s", body, CodeVideoStreamFailed)
	}
	if strings.Contains(body, "connection reset") {
		t.Errorf("body leaks backend detail: %s", body)
	}
}

// failingReader returns some bytes and then an error.
type failingReader struct {
	data []byte
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, errors.New("backend connection dropped")
	}
	f.done = true
	return copy(p, f.data), nil
}

func TestVideoHandler_Stream_MidStreamFailureAborts(t *testing.T) {
	store := objectStore("videos/a.mp4", thousandBytes)
	store.getRangeFn = func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
		return io.NopCloser(&failingReader{data: thousandBytes[:10]}), nil
	}
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/a.mp4", nil)
	rec := httptest.NewRecorder()

	defer func() {
		rec := recover()
		if rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	router.ServeHTTP(rec, req)
	t.Error("ServeHTTP should not return normally")
}

// cancelingReader cancels the request context after its first read, the way
// a client hanging up mid-download does.
type cancelingReader struct {
	ctx    context.Context
	cancel context.CancelFunc
	data   []byte
	read   bool
	closed bool
}

func (c *cancelingReader) Read(p []byte) (int, error) {
	if c.read {
		return 0, c.ctx.Err()
	}
	c.read = true
	c.cancel()
	return copy(p, c.data), nil
}

func (c *cancelingReader) Close() error {
	c.closed = true
	return nil
}

func TestVideoHandler_Stream_ClientDisconnect(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		reader   *cancelingReader
		rangeCtx context.Context
	)
	store := objectStore("videos/a.mp4", thousandBytes)
	store.getRangeFn = func(ctx context.Context, key string, start, end uint64) (io.ReadCloser, error) {
		rangeCtx = ctx
		reader = &cancelingReader{ctx: ctx, cancel: cancel, data: thousandBytes[:10]}
		return reader, nil
	}
	router := newTestRouter(store, usecase.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/a.mp4", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil && r != http.ErrAbortHandler {
				t.Errorf("recovered %v, want http.ErrAbortHandler", r)
			}
		}()
		router.ServeHTTP(rec, req)
	}()

	if reader == nil {
		t.Fatal("GetRange was not called")
	}
	if !reader.closed {
		t.Error("backend body was not closed")
	}
	if !errors.Is(rangeCtx.Err(), context.Canceled) {
		t.Errorf("GetRange context error = %v, want %v", rangeCtx.Err(), context.Canceled)
	}
	if strings.Contains(logs.String(), "video stream interrupted") {
		t.Errorf("client disconnect logged as interrupted stream: %s", logs.String())
	}
}

func TestVideoHandler_List(t *testing.T) {
	modified := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name           string
		listPageFn     func(ctx context.Context, prefix, token string) (*model.ListPage, error)
		wantStatusCode int
		wantCount      int
		wantCode       string
	}{
		{
			name: "lists objects",
			listPageFn: func(ctx context.Context, prefix, token string) (*model.ListPage, error) {
				return &model.ListPage{Objects: []model.VideoObject{
					{Name: "videos/", Size: 0, LastModified: modified},
					{Name: "videos/a.mp4", Size: 1000, LastModified: modified},
					{Name: "videos/b.webm", Size: 2000, LastModified: modified},
				}}, nil
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "empty bucket",
			listPageFn: func(ctx context.Context, prefix, token string) (*model.ListPage, error) {
				return &model.ListPage{}, nil
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name: "backend failure",
			listPageFn: func(ctx context.Context, prefix, token string) (*model.ListPage, error) {
				return nil, fmt.Errorf("%w: access denied", repository.ErrStorageBackend)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       CodeVideoListFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockObjectStore{listPageFn: tt.listPageFn}, usecase.DefaultConfig())

			req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantStatusCode)
			}

			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
				if strings.Contains(resp.Message, "access denied") {
					t.Errorf("message leaks backend detail: %q", resp.Message)
				}
				return
			}

			var resp struct {
				Videos []map[string]any `json:"videos"`
				Count  int              `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Count != tt.wantCount || len(resp.Videos) != tt.wantCount {
				t.Errorf("count = %d, len(videos) = %d, want %d", resp.Count, len(resp.Videos), tt.wantCount)
			}
			if resp.Videos == nil {
				t.Error("videos should be an array, got null")
			}
			if tt.wantCount > 0 && resp.Videos[0]["last_modified"] != "2025-05-01T12:00:00Z" {
				t.Errorf("last_modified = %v", resp.Videos[0]["last_modified"])
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"videos/a.mp4", "video/mp4"},
		{"videos/A.MP4", "video/mp4"},
		{"videos/b.webm", "video/webm"},
		{"videos/c.mov", "video/quicktime"},
		{"videos/playlist.m3u8", "application/vnd.apple.mpegurl"},
		{"videos/poster.png", "image/png"},
		{"videos/noext", "application/octet-stream"},
		{"videos/weird.zzzunknown", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := contentTypeFor(tt.key); got != tt.want {
				t.Errorf("contentTypeFor(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
