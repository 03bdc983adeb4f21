package entity

import "time"

// DiscoveryJob is the payload of one queued link-discovery run. Zero limits
// mean "no cap"; non-zero limits truncate the discovered sets after full
// discovery and exist for dry runs.
type DiscoveryJob struct {
	CollectionLimit int `json:"collection_limit"`
	ProductLimit    int `json:"product_limit"`
}

// Pipeline statuses a submitted URL can report.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusNotFound  = "not_found"
)

// ExtractStatus describes where a submitted product URL currently is in the
// pipeline.
type ExtractStatus struct {
	URL           string
	CurrentStatus string
	LastUpdatedAt *time.Time
}
