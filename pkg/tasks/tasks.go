// Package tasks defines the ingestion work units carried over the queue.
package tasks

// Task kinds. Each kind maps to one gateway operation and one
// placeholder/finalize pair (the drive batch carries one pair per file).
const (
	KindDocument   = "document"
	KindVideo      = "video"
	KindResumeS3   = "resume_s3"
	KindDriveBatch = "drive_batch"
)

// DriveBatchFile is one file of a drive-folder batch. RecordID is the
// placeholder analysis record created before the batch was enqueued.
type DriveBatchFile struct {
	RecordID string `json:"record_id"`
	FileID   string `json:"file_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// IngestionTask is the tagged variant dispatched to the pipeline. Exactly
// the fields of the tagged kind are set; the rest stay zero.
type IngestionTask struct {
	Kind string `json:"kind"`

	// Document / video source ingestion.
	SourceID string `json:"source_id,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Filename string `json:"filename,omitempty"`

	// Resume analysis via object storage.
	RecordID    string `json:"record_id,omitempty"`
	Description string `json:"description,omitempty"`

	// Drive folder batch.
	GoogleToken string           `json:"google_token,omitempty"`
	Files       []DriveBatchFile `json:"files,omitempty"`
}
