// Package loader fetches a web page and extracts the text of selected HTML
// regions as documents ready for chunking.
package loader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"pagechat/vecgo/chunker"
)

// DefaultSelectors are the regions kept from a blog post page.
var DefaultSelectors = []string{".post-content", ".post-title", ".post-header"}

// FetchError reports a page that could not be loaded or held no usable text.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Loader produces documents from a source location.
type Loader interface {
	Load(ctx context.Context, url string) ([]chunker.Document, error)
}

// WebConfig configures a Web loader.
type WebConfig struct {
	Selectors []string
	UserAgent string
	Timeout   time.Duration
}

// Option configures a Web loader.
type Option func(*Web)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Web) { w.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Web) { w.logger = l }
}
