package repository

import "context"

// Browser opens scriptable browser sessions. A session is a scarce resource
// (one OS process each); callers must Close every session they open, on
// every exit path.
type Browser interface {
	// Open navigates a fresh session to the URL and returns it once the
	// page body is present. Returns ErrNavigationFailed if the page cannot
	// be loaded.
	Open(ctx context.Context, url string) (BrowserSession, error)
}

// BrowserSession drives one live page. Reads that match no element return
// ErrElementNotFound; callers treat that as "field unavailable" rather than
// aborting.
type BrowserSession interface {
	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)
	// SelectOption sets a <select> control to the given value and fires the
	// page's change handlers so its own client-side logic re-renders.
	SelectOption(ctx context.Context, selector, value string) error
	// ReadText returns the text content of the first element matching the
	// selector.
	ReadText(ctx context.Context, selector string) (string, error)
	// ReadAttribute returns an attribute of the first element matching the
	// selector.
	ReadAttribute(ctx context.Context, selector, attribute string) (string, error)
	// ScrollToBottom scrolls the window to the bottom of the document.
	ScrollToBottom(ctx context.Context) error
	// PageHeight returns the current scroll height of the document.
	PageHeight(ctx context.Context) (int64, error)
	// Close tears the session down. Safe to call exactly once; always call
	// it, including on error paths.
	Close() error
}

// PageFetcher fetches a page over plain HTTP, without script execution.
// Cheaper and more reliable than a browser session for content present at
// initial load.
type PageFetcher interface {
	// Fetch returns the response body for a 200 response and ErrBadStatus
	// otherwise.
	Fetch(ctx context.Context, url string) (string, error)
}
