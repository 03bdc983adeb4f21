package response

import "time"

type SubmitExtractResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id,omitempty"`
	Queued       int    `json:"queued,omitempty"`
}

// ExtractStatusResponse is a DTO for extraction status, mirroring
// entity.ExtractStatus.
type ExtractStatusResponse struct {
	URL           string     `json:"url"`
	CurrentStatus string     `json:"current_status"` // "pending", "completed", "not_found"
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

type ExportResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}
