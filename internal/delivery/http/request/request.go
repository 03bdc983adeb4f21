package request

// SubmitDiscoveryRequest starts a link-discovery run. Zero limits discover
// everything.
type SubmitDiscoveryRequest struct {
	CollectionLimit int `json:"collection_limit"`
	ProductLimit    int `json:"product_limit"`
}

// SubmitExtractRequest queues product extraction: one URL, or every product
// still flagged for update when All is set. Force reopens the dedup window
// for a single URL.
type SubmitExtractRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"`
	All   bool   `json:"all"`
}
