package models

import "time"

const (
	ImportQueued     = "queued"
	ImportProcessing = "processing"
	ImportDone       = "done"
	ImportFailed     = "failed"
)

// ImportResult is the outcome of one import batch as reported to clients.
type ImportResult struct {
	Message        string   `json:"message"`
	ProcessedCount int      `json:"processed_count"`
	InsertedCount  int      `json:"inserted_count"`
	SkippedCount   int      `json:"skipped_count"`
	Row            int      `json:"row,omitempty"`
	MissingFields  []string `json:"missing_fields,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// ImportJob is an upload waiting for or processed by the background worker.
type ImportJob struct {
	ID        string        `json:"job_id"`
	Entity    string        `json:"entity"`
	Format    string        `json:"format"`
	FilePath  string        `json:"file_path,omitempty"`
	FileName  string        `json:"file_name"`
	Status    string        `json:"status"`
	Result    *ImportResult `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
