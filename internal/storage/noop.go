package storage

import (
	"context"
	"errors"
)

// NoopUploader is used when no object storage backend is configured.
type NoopUploader struct{}

func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: no uploader configured")
}
