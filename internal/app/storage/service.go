/*
Package storage provides the file store behind the upload endpoint.

The Service interface is a stateless store-and-return-URL operation: it has no
coupling to the chat core beyond producing a URL the core treats as an opaque
attachment field. Two implementations exist: S3-compatible object storage and
a local-disk fallback for development.
*/
package storage

import (
	"context"
	"io"
)

// ServiceConfig holds the configuration required to connect to the storage
// backend. An empty S3BucketName selects the local-disk implementation.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3PublicBaseURL is the public URL prefix for stored objects. Defaults
	// to the path-style endpoint URL when empty.
	S3PublicBaseURL string

	// LocalDir is the directory used by the local-disk implementation.
	LocalDir string

	// LocalBaseURL is the URL prefix under which LocalDir is served.
	LocalBaseURL string
}

// Service is the public interface for the file storage backend. Stored files
// are never removed server-side; retention is the backend's concern.
type Service interface {
	// Store saves the file content under key and returns its public URL.
	Store(ctx context.Context, key string, mimeType string, body io.Reader) (string, error)
}

// NewService initializes a concrete Service from the configuration: S3 when a
// bucket is configured, local disk otherwise.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.S3BucketName != "" {
		return newS3Service(cfg)
	}

	return newLocalService(cfg)
}
