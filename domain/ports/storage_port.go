package ports

import "context"

// StoragePort - object storage for publishing a completed run's artifacts
// (R2/S3). Optional: a run is complete once its local cache directory is,
// publication is a convenience on top.
type StoragePort interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Exists(ctx context.Context, path string) (bool, error)
	GetPublicURL(path string) string
}
