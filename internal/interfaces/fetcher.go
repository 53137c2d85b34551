package interfaces

import "context"

// DocumentFetcher retrieves raw HTML documents over plain HTTP.
// Failures are reported as *models.FetchError.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageCache stores fetched documents keyed by URL. A miss is not an error.
type PageCache interface {
	Get(url string) ([]byte, bool)
	Set(url string, body []byte) error
}
