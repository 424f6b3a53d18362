package repository

import "errors"

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidKey is returned for object keys the store refuses to sign.
	ErrInvalidKey = errors.New("invalid object key")

	// ErrInvalidRange is returned when a byte window is not well formed.
	ErrInvalidRange = errors.New("invalid byte range")

	// ErrPresignFailed is returned when the backend cannot sign a URL.
	ErrPresignFailed = errors.New("presigned URL generation failed")

	// ErrStorageBackend wraps any other failure reported by the backend.
	ErrStorageBackend = errors.New("storage backend error")
)
