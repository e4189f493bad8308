package domain

import "time"

// Import run statuses.
const (
	ImportRunning = "RUNNING"
	ImportSuccess = "SUCCESS"
	ImportPartial = "PARTIAL"
	ImportFailed  = "FAILED"
)

// RowIssue points at one statement row that was skipped or failed to save.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportRun is the audit entry for one statement upload.
type ImportRun struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	FileName     string     `json:"fileName"`
	FileKind     string     `json:"fileKind"`
	ArchiveURI   string     `json:"archiveUri,omitempty"`
	Format       string     `json:"format,omitempty"`
	Status       string     `json:"status"`
	DataRows     int        `json:"dataRows"`
	Imported     int        `json:"imported"`
	Failed       int        `json:"failed"`
	Skipped      int        `json:"skipped"`
	Issues       []RowIssue `json:"issues,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// FinishStatus derives the final status from the row tallies.
func FinishStatus(imported, failed int) string {
	switch {
	case imported == 0:
		return ImportFailed
	case failed > 0:
		return ImportPartial
	default:
		return ImportSuccess
	}
}
