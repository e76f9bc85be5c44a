package storage

import (
	"context"
	"io"
	"time"
)

// UploadInput describes a single object to store.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// Service stores user-uploaded objects (avatar images) in remote object storage.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (string, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
