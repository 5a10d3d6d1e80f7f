package models

import "time"

// Status tracks a video analysis request through its lifecycle. The job
// runner owns the transitions; the pipeline itself never touches status.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// SourceType distinguishes how the video was submitted.
type SourceType string

const (
	SourceLocalFile  SourceType = "file"
	SourceYouTubeURL SourceType = "youtube"
)

// AnalysisRequest is one video waiting for, undergoing, or finished with a
// pipeline run.
type AnalysisRequest struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"` // file path or YouTube URL
	SourceType  SourceType `json:"source_type"`
	Title       string     `json:"title,omitempty"`
	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	RunID    string                          `json:"run_id,omitempty"`
	Record   *ComprehensiveRecord            `json:"record,omitempty"`
	Outputs  map[ModuleKind]*FormattedOutput `json:"outputs,omitempty"`
	Failures map[ModuleKind]string           `json:"failures,omitempty"`
	Error    string                          `json:"error,omitempty"`
}
