package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// Archiver stores raw statement files and returns their gs:// URI.
type Archiver interface {
	Archive(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

// StorageService is the GCS-backed Archiver. It also fetches archived files
// back for re-import.
type StorageService struct {
	client *storage.Client
	bucket string
}

var _ Archiver = (*StorageService)(nil)

// NewStorageService creates a service writing to bucket.
func NewStorageService(ctx context.Context, bucket string) (*StorageService, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewStorageService: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStorageService: create storage client: %w", err)
	}
	return &StorageService{client: client, bucket: bucket}, nil
}

// Bucket returns the target bucket name.
func (s *StorageService) Bucket() string {
	return s.bucket
}

// Close releases the storage client.
func (s *StorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Archive delegates to UploadReader with the shared client.
func (s *StorageService) Archive(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if err := UploadReader(ctx, s.client, s.bucket, objectName, contentType, r); err != nil {
		return "", err
	}
	return URI(s.bucket, objectName), nil
}

// Upload copies a local file to objectName and returns its URI.
func (s *StorageService) Upload(ctx context.Context, objectName, filePath string) (string, error) {
	if err := UploadFile(ctx, s.client, s.bucket, objectName, filePath); err != nil {
		return "", err
	}
	return URI(s.bucket, objectName), nil
}

// Fetch delegates to FetchFromGCS with the shared client.
func (s *StorageService) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, s.client, gcsURI)
}
