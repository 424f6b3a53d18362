package model

import (
	"strings"
	"time"
)

// Health status values reported by a storage probe.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// VideoObject is a read-through projection of one object in the store.
type VideoObject struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// IsPlaceholder reports whether the object is a zero-byte "directory" marker
// created by consoles and sync tools.
func (o VideoObject) IsPlaceholder() bool {
	return strings.HasSuffix(o.Name, "/")
}

// ObjectMetadata is fetched on every request and never cached.
type ObjectMetadata struct {
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ListPage is a single page of a paginated listing.
// NextToken is opaque and only meaningful to the backend that issued it.
type ListPage struct {
	Objects   []VideoObject
	NextToken string
	Truncated bool
}

// HasMore reports whether another page can be requested.
func (p *ListPage) HasMore() bool {
	return p.Truncated && p.NextToken != ""
}

// HealthStatus is the result of probing the storage backend.
type HealthStatus struct {
	Status       string `json:"status"`
	BucketExists bool   `json:"bucket_exists"`
	BucketName   string `json:"bucket_name"`
	Error        string `json:"error,omitempty"`
}

// NewHealthyStatus returns a status for a reachable, existing bucket.
func NewHealthyStatus(bucket string) HealthStatus {
	return HealthStatus{
		Status:       HealthStatusHealthy,
		BucketExists: true,
		BucketName:   bucket,
	}
}

// NewUnhealthyStatus returns a status carrying the probe failure.
func NewUnhealthyStatus(bucket string, err error) HealthStatus {
	s := HealthStatus{
		Status:     HealthStatusUnhealthy,
		BucketName: bucket,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func (s HealthStatus) IsHealthy() bool {
	return s.Status == HealthStatusHealthy
}

// PresignedURL is a signed, time-bounded GET URL.
// Expiry is enforced by the backend's signature, not tracked locally.
type PresignedURL struct {
	URL       string `json:"url"`
	ExpiresIn uint64 `json:"expires_in"`
}
