package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// UploadReader streams r into bucket/objectName.
func UploadReader(ctx context.Context, client *storage.Client, bucketName, objectName, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadReader: copy to GCS writer: %w", err)
	}

	// Close finalises the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadReader: finalize upload of %s: %w", objectName, err)
	}
	return nil
}

// UploadFile uploads a local file. It assumes Application Default Credentials
// are configured (gcloud auth application-default login).
func UploadFile(ctx context.Context, client *storage.Client, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	return UploadReader(ctx, client, bucketName, objectName, contentTypeFor(filePath), f)
}

// ObjectName builds the archive path imports/<user>/<yyyy>/<mm>/<dd>/<run>-<file>.
func ObjectName(userID, runID, fileName string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "statement"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return path.Join("imports", userID, at.UTC().Format("2006/01/02"), runID+"-"+name)
}

// URI formats a gs:// URI.
func URI(bucketName, objectName string) string {
	return "gs://" + bucketName + "/" + objectName
}

// ParseGCSURI splits gs://bucket/path into bucket and object path.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.csv" → "file.csv"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
