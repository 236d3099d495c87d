package ports

import "context"

// Page is the host page the connection lives in
type Page interface {
	// CurrentURL returns the absolute URL of the page.
	CurrentURL() string

	// ReplaceURL rewrites the page URL without navigating or adding history.
	ReplaceURL(url string)

	// Navigate leaves the page for url. On a real host nothing runs after it.
	Navigate(ctx context.Context, url string) error
}
