package storage

import (
	"context"
	"time"
)

// ProgressFunc receives the number of bytes transferred since the previous call.
type ProgressFunc func(n int64)

type Backend interface {
	// ListByPrefix returns keys starting with prefix, empty if none.
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
	// UploadFile may call onProgress concurrently.
	UploadFile(ctx context.Context, key string, localPath string, onProgress ProgressFunc) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
