package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"pagechat/internal/version"
	"pagechat/vecgo/chunker"
)

const maxBodyBytes = 10 << 20

// ErrNoContent is wrapped by FetchError when the selectors match no text.
var ErrNoContent = errors.New("selectors matched no text")

// Web loads a single HTML page, keeping only the text inside elements that
// match the configured CSS selectors.
type Web struct {
	selectors string
	userAgent string
	client    *http.Client
	logger    *log.Logger
}

// NewWeb creates a web page loader.
func NewWeb(cfg WebConfig, opts ...Option) *Web {
	selectors := cfg.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	w := &Web{
		selectors: strings.Join(selectors, ", "),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load fetches url once and returns one document holding the selected text.
func (w *Web) Load(ctx context.Context, url string) ([]chunker.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	text := w.extract(doc)
	if strings.TrimSpace(text) == "" {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrNoContent}
	}

	meta := pageMetadata(doc)
	meta["source"] = url

	w.logger.Debug("page loaded", "url", url, "status", resp.StatusCode, "chars", len(text), "elapsed", time.Since(start))

	return []chunker.Document{{
		ID:       url,
		Content:  text,
		Metadata: meta,
	}}, nil
}

// extract returns the text of every selected element in document order. An
// element nested inside another selected element is covered by its ancestor.
func (w *Web) extract(doc *goquery.Document) string {
	var tw textWriter
	doc.Find(w.selectors).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(w.selectors).Length() > 0 {
			return
		}
		tw.breakLine(2)
		tw.walk(s)
		tw.breakLine(2)
	})
	return tw.String()
}

func pageMetadata(doc *goquery.Document) map[string]string {
	meta := make(map[string]string, 4)
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		meta["description"] = strings.TrimSpace(desc)
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		meta["language"] = lang
	}
	return meta
}
