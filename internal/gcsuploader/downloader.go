package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// FetchFromGCS downloads the bytes behind a gs:// URI.
func FetchFromGCS(ctx context.Context, client *storage.Client, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}
