package entity

// Collection mirrors the `collections` PostgreSQL table schema. A collection
// is one storefront category page, identified across re-crawls by its
// source URL.
type Collection struct {
	ID          int64
	Title       string
	Description string
	SourceURL   string
	// CSVExport is the path of the last exported CSV file for this
	// collection, empty until the first export.
	CSVExport string
}
