// Package agg keeps stored feeds current: it pulls new entries for one feed or
// all of them, and registers new feeds.
package agg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/logger"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

type (
	// Store is the slice of storage the aggregator writes through.
	Store interface {
		Feed(ctx context.Context, id int64) (*newsapp.Feed, error)
		AllFeeds(ctx context.Context) ([]newsapp.Feed, error)
		AddFeed(ctx context.Context, url, title, description string) (newsapp.Feed, error)
		AddArticles(ctx context.Context, articles []newsapp.Article) (int, error)
		UpdateFeed(ctx context.Context, id int64, args newsapp.UpdateFeedArgs) (bool, error)
	}

	// Fetcher turns a url into feed metadata and articles. Failures come back
	// as nil, unchanged or empty results, never errors.
	Fetcher interface {
		ParseFeed(ctx context.Context, url string) *newsapp.Feed
		FetchFeed(ctx context.Context, feed newsapp.Feed) (newsapp.Feed, []newsapp.Article)
	}

	// Recorder is told how every update went.
	Recorder interface {
		FeedUpdated(feedID int64, added int, took time.Duration)
		FeedFailed(feedID int64, err error)
		RefreshCompleted(at time.Time)
	}

	Config struct {
		// Workers bounds how many feeds UpdateAll refreshes at once.
		Workers int
		Metrics Recorder
		// Now is the clock used for last-updated stamps.
		Now func() time.Time
	}

	// Result is the outcome of updating a single feed in UpdateAll.
	Result struct {
		FeedID int64
		Title  string
		Added  int
		Err    error
	}

	// Added is what AddFeed stored.
	Added struct {
		Feed     newsapp.Feed
		Articles int
	}
)

const defaultWorkers = 4

type Aggregator struct {
	store   Store
	fetcher Fetcher
	metrics Recorder
	now     func() time.Time
	workers int
	locks   *keyedMutex
}

func New(store Store, fetcher Fetcher, cfg Config) *Aggregator {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Aggregator{
		store:   store,
		fetcher: fetcher,
		metrics: cfg.Metrics,
		now:     cfg.Now,
		workers: cfg.Workers,
		locks:   newKeyedMutex(),
	}
}

// UpdateFeed pulls the feed's current entries and stores the new ones,
// returning how many were added. An unknown id is a no-op.
func (a *Aggregator) UpdateFeed(ctx context.Context, feedID int64) (int, error) {
	unlock := a.locks.lock(feedID)
	defer unlock()

	ctx = logger.Ctx(ctx, slog.Int64("feed_id", feedID))
	start := time.Now()

	feed, err := a.store.Feed(ctx, feedID)
	if err != nil {
		a.metrics.FeedFailed(feedID, err)
		return 0, fmt.Errorf("error fetching feed to update: %w", err)
	}
	if feed == nil {
		slog.DebugContext(ctx, "feed not found, skipping update")
		return 0, nil
	}

	_, added, err := a.ingest(ctx, *feed)
	if err != nil {
		a.metrics.FeedFailed(feedID, err)
		return 0, err
	}

	a.metrics.FeedUpdated(feedID, added, time.Since(start))
	slog.InfoContext(ctx, "updated feed", "added", added)

	return added, nil
}

// UpdateAll updates every feed. A failing feed is reported in its Result and
// doesn't stop the rest.
func (a *Aggregator) UpdateAll(ctx context.Context) ([]Result, error) {
	feeds, err := a.store.AllFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing feeds: %w", err)
	}

	results := make([]Result, len(feeds))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, feed := range feeds {
		g.Go(func() error {
			added, err := a.UpdateFeed(ctx, feed.ID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to update feed", "feed_id", feed.ID, "error", err)
			}
			results[i] = Result{FeedID: feed.ID, Title: feed.Title, Added: added, Err: err}

			return nil
		})
	}
	g.Wait()

	a.metrics.RefreshCompleted(a.now())
	slog.InfoContext(ctx, "updated all feeds", "feeds", len(feeds), "added", Total(results))

	return results, nil
}

// Total sums the articles added across results.
func Total(results []Result) int {
	total := 0
	for _, r := range results {
		total += r.Added
	}
	return total
}

// AddFeed registers the feed at url and pulls its first batch of articles.
// Adding a url that is already stored refreshes it instead.
func (a *Aggregator) AddFeed(ctx context.Context, url string) (Added, error) {
	parsed := a.fetcher.ParseFeed(ctx, url)
	if parsed == nil {
		return Added{}, newserrs.E(newserrs.KindFetch, fmt.Sprintf("could not parse feed at %s", url))
	}

	feed, err := a.store.AddFeed(ctx, parsed.URL, parsed.Title, parsed.Description)
	if err != nil {
		return Added{}, fmt.Errorf("error adding feed: %w", err)
	}

	unlock := a.locks.lock(feed.ID)
	defer unlock()

	ctx = logger.Ctx(ctx, slog.Int64("feed_id", feed.ID))
	slog.DebugContext(ctx, "inserted feed", "url", feed.URL)

	feed, added, err := a.ingest(ctx, feed)
	if err != nil {
		return Added{Feed: feed}, err
	}

	return Added{Feed: feed, Articles: added}, nil
}

// ingest stores the feed's current articles, then stamps the feed along with
// any change to its title or description. It returns the feed as stored.
// Callers hold the feed's lock.
func (a *Aggregator) ingest(ctx context.Context, feed newsapp.Feed) (newsapp.Feed, int, error) {
	current, articles := a.fetcher.FetchFeed(ctx, feed)

	added, err := a.store.AddArticles(ctx, articles)
	if err != nil {
		return feed, 0, fmt.Errorf("error inserting articles: %w", err)
	}

	stamped := a.now().UTC().Truncate(time.Second)
	args := newsapp.UpdateFeedArgs{LastUpdated: stamped}
	if current.Title != feed.Title {
		args.Title = current.Title
	}
	if current.Description != feed.Description {
		args.Description = current.Description
	}

	// A missed stamp only makes the feed look staler than it is.
	ok, err := a.store.UpdateFeed(ctx, feed.ID, args)
	if err != nil {
		slog.WarnContext(ctx, "error stamping feed", "error", err)
		return feed, added, nil
	}
	if !ok {
		slog.DebugContext(ctx, "feed deleted during update")
		return feed, added, nil
	}

	if args.Title != "" {
		slog.InfoContext(ctx, "feed title changed", "from", feed.Title, "to", args.Title)
		feed.Title = args.Title
	}
	if args.Description != "" {
		feed.Description = args.Description
	}
	feed.LastUpdated = &stamped

	return feed, added, nil
}

type nopRecorder struct{}

func (nopRecorder) FeedUpdated(int64, int, time.Duration) {}
func (nopRecorder) FeedFailed(int64, error)               {}
func (nopRecorder) RefreshCompleted(time.Time)            {}
