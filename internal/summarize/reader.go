// Package summarize turns an article's web page into a clean reader view and
// asks Claude for a short summary of it.
package summarize

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sym01/htmlsanitizer"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

const (
	DefaultPageTimeout = 10 * time.Second
	defaultCacheSize   = 256
)

// Page is the readable part of an article's web page.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Byline  string `json:"byline"`
	Content string `json:"content"` // sanitized html
	Text    string `json:"-"`
}

// Reader fetches pages and strips them down with readability.
type Reader struct {
	client *http.Client
	cache  *lru.Cache[string, Page]
}

func NewReader(timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	cache, _ := lru.New[string, Page](defaultCacheSize)

	return &Reader{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
	}
}

// Read returns the reader view of link. Results are cached by link.
func (r *Reader) Read(ctx context.Context, link string) (Page, error) {
	// Cache results for less processing and prevent refetches
	if page, ok := r.cache.Get(link); ok {
		return page, nil
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, newserrs.E(newserrs.KindInvalid, fmt.Sprintf("article link %q is not a web page", link))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Page{}, fmt.Errorf("error building request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Page{}, newserrs.E(newserrs.KindFetch, fmt.Errorf("error fetching article page: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, newserrs.E(newserrs.KindFetch, fmt.Sprintf("unexpected status code fetching article page: %d", resp.StatusCode))
	}

	// Strip it for readability and sanitize
	parser := readability.NewParser()
	article, err := parser.Parse(resp.Body, u)
	if err != nil {
		return Page{}, newserrs.E(newserrs.KindFetch, fmt.Errorf("error extracting article: %w", err))
	}

	sanitizer := htmlsanitizer.NewHTMLSanitizer()
	contents, err := sanitizer.SanitizeString(article.Content)
	if err != nil {
		return Page{}, fmt.Errorf("error sanitizing article: %w", err)
	}

	page := Page{
		URL:     link,
		Title:   strings.TrimSpace(article.Title),
		Byline:  strings.TrimSpace(article.Byline),
		Content: contents,
		Text:    strings.TrimSpace(article.TextContent),
	}
	// Add to the cache for next time
	r.cache.Add(link, page)

	return page, nil
}
