package csvimport

import "errors"

// Whole-file failures. Row-level problems never surface as errors; they are
// recorded as a Skip on the Result.
var (
	ErrEmptyInput        = errors.New("no data found in CSV file")
	ErrNoValidRows       = errors.New("no valid transactions found in CSV file")
	ErrNoFile            = errors.New("no file selected")
	ErrUnsupportedType   = errors.New("please select a CSV or PDF file")
	ErrFileTooLarge      = errors.New("file size must be less than 10MB")
	ErrPDFNotImplemented = errors.New("PDF statement import is not implemented yet")
	ErrInvalidDate       = errors.New("invalid date")
)
