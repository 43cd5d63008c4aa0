// Package fetch retrieves feed documents and turns them into articles.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "news-app/1.0 (+https://github.com/harshitpdoshi/news-app)"
	DefaultMaxBodySize = 10 << 20
	defaultBackoff     = 500 * time.Millisecond
)

type Config struct {
	// Timeout bounds each HTTP attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retries is how many times a transient failure is retried after the first attempt.
	Retries uint64
	// Backoff is the first wait between attempts, growing as a Fibonacci sequence.
	Backoff     time.Duration
	UserAgent   string
	MaxBodySize int64
}

// Fetcher reads feeds over http(s) or from disk.
type Fetcher struct {
	client      *http.Client
	retries     uint64
	backoff     time.Duration
	userAgent   string
	maxBodySize int64
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	return &Fetcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		retries:     cfg.Retries,
		backoff:     cfg.Backoff,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch retrieves and parses the document at feedURL. Any failure comes back
// as a fetch error.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (Document, error) {
	body, err := f.read(ctx, feedURL)
	if err != nil {
		return Document{}, newserrs.E(newserrs.KindFetch, fmt.Errorf("error fetching %s: %w", feedURL, err))
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		// A cut-off document still has whatever came before the cut.
		repaired, ok := closeTruncated(body)
		if !ok {
			return Document{}, newserrs.E(newserrs.KindFetch, fmt.Errorf("error parsing %s: %w", feedURL, err))
		}
		if parsed, err = gofeed.NewParser().Parse(bytes.NewReader(repaired)); err != nil {
			return Document{}, newserrs.E(newserrs.KindFetch, fmt.Errorf("error parsing %s: %w", feedURL, err))
		}
		slog.DebugContext(ctx, "recovered truncated feed", "url", feedURL)
	}

	return normalize(parsed), nil
}

// ParseFeed returns the feed at feedURL ready to be stored, or nil if it could
// not be fetched or has no title.
func (f *Fetcher) ParseFeed(ctx context.Context, feedURL string) *newsapp.Feed {
	doc, err := f.Fetch(ctx, feedURL)
	if err != nil {
		slog.WarnContext(ctx, "error parsing feed", "url", feedURL, "err", err)
		return nil
	}
	if doc.Title == "" {
		slog.WarnContext(ctx, "feed has no title", "url", feedURL)
		return nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	return &newsapp.Feed{
		URL:         feedURL,
		Title:       doc.Title,
		Description: doc.Description,
		LastUpdated: &now,
	}
}

// FetchFeed returns feed with the title and description it currently
// publishes, along with its entries as unsaved articles. A feed that can't be
// fetched comes back unchanged with no articles.
func (f *Fetcher) FetchFeed(ctx context.Context, feed newsapp.Feed) (newsapp.Feed, []newsapp.Article) {
	doc, err := f.Fetch(ctx, feed.URL)
	if err != nil {
		slog.WarnContext(ctx, "error fetching articles", "feed_id", feed.ID, "url", feed.URL, "err", err)
		return feed, []newsapp.Article{}
	}

	if doc.Title != "" {
		feed.Title = doc.Title
	}
	if doc.Description != "" {
		feed.Description = doc.Description
	}

	articles := make([]newsapp.Article, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		articles = append(articles, newsapp.Article{
			FeedID:    feed.ID,
			Title:     e.Title,
			Link:      e.Link,
			Summary:   e.Summary,
			Published: e.Published,
			Author:    e.Author,
		})
	}
	return feed, articles
}

// FetchArticles returns the feed's current entries as unsaved articles. It
// returns nothing if the feed can't be fetched.
func (f *Fetcher) FetchArticles(ctx context.Context, feed newsapp.Feed) []newsapp.Article {
	_, articles := f.FetchFeed(ctx, feed)
	return articles
}

func (f *Fetcher) read(ctx context.Context, feedURL string) ([]byte, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.get(ctx, feedURL)
	case "file":
		return f.readFile(u.Path)
	case "":
		return f.readFile(feedURL)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, f.maxBodySize))
}

var errStatus = errors.New("unexpected status code")

// get retries network errors, 429s and 5xxs.
func (f *Fetcher) get(ctx context.Context, feedURL string) ([]byte, error) {
	b := retry.WithMaxRetries(f.retries, retry.NewFibonacci(f.backoff))

	var body []byte
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml, */*")

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			slog.DebugContext(ctx, "retrying feed fetch", "url", feedURL, "err", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			slog.DebugContext(ctx, "retrying feed fetch", "url", feedURL, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("%w: %d", errStatus, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}

// Reports whether the url points somewhere Fetch can read from.
func Supported(feedURL string) bool {
	u, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "file", "":
		return u.Path != ""
	}
	return false
}
