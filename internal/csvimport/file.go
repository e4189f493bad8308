package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest accepted upload, 10 MiB.
const MaxFileSize int64 = 10 << 20

// FileKind is the recognised type of an upload.
type FileKind string

const (
	KindCSV FileKind = "csv"
	KindPDF FileKind = "pdf"
)

// FileInfo describes an upload before any byte is read.
type FileInfo struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateFile is the pre-flight check run before parsing. PDFs pass; the
// importer rejects them later with ErrPDFNotImplemented.
func ValidateFile(fi FileInfo) (FileKind, error) {
	if fi.Name == "" && fi.Size == 0 {
		return "", ErrNoFile
	}

	mediaType, _, err := mime.ParseMediaType(fi.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(fi.ContentType))
	}
	ext := strings.ToLower(filepath.Ext(fi.Name))

	var kind FileKind
	switch {
	case mediaType == "text/csv" || ext == ".csv":
		kind = KindCSV
	case mediaType == "application/pdf" || ext == ".pdf":
		kind = KindPDF
	default:
		return "", fmt.Errorf("ValidateFile: %q (%s): %w", fi.Name, fi.ContentType, ErrUnsupportedType)
	}

	if fi.Size > MaxFileSize {
		return "", fmt.Errorf("ValidateFile: %q is %d bytes: %w", fi.Name, fi.Size, ErrFileTooLarge)
	}
	return kind, nil
}

// ReadRows splits comma-separated input into rows. Rows may have differing
// lengths, stray quotes are tolerated and blank lines are dropped.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadRows: %w", err)
		}
		rows = append(rows, Row(rec))
	}
	return rows, nil
}
