package handler

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error writes the standard error body. The error field carries the HTTP
// status text; code is the stable machine-readable identifier.
func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// Error codes returned by the API.
const (
	CodeVideoListFailed     = "VIDEO_LIST_FAILED"
	CodeInvalidVideoPath    = "INVALID_VIDEO_PATH"
	CodeVideoNotFound       = "VIDEO_NOT_FOUND"
	CodeVideoStreamFailed   = "VIDEO_STREAM_FAILED"
	CodeRangeNotSatisfiable = "RANGE_NOT_SATISFIABLE"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInvalidObjectKey    = "INVALID_OBJECT_KEY"
	CodePresignFailed       = "PRESIGN_FAILED"
)
