// Package storage persists validated uploads to an S3-compatible object store
// and turns stored objects into retrievable URLs. Swap backends by changing
// the concrete ObjectStore injected at startup — the MinIO implementation
// works with any S3-compatible provider (MinIO, DigitalOcean Spaces, AWS S3).
package storage

import "context"

// ObjectMeta is the metadata written alongside every stored object.
type ObjectMeta struct {
	ContentType        string
	ContentDisposition string
	CacheControl       string
}

// ObjectStore is the low-level contract against the object store.
type ObjectStore interface {
	// EnsureBucket creates the bucket if it does not already exist.
	EnsureBucket(ctx context.Context, bucket string) error
	// Put writes content under key in a single atomic operation.
	Put(ctx context.Context, bucket, key string, content []byte, meta ObjectMeta) error
	// Remove deletes the object at key. Removing an absent key succeeds.
	Remove(ctx context.Context, bucket, key string) error
}
