// Package newsapp holds the domain types shared by the storage, fetching and
// orchestration packages.
package newsapp

import (
	"context"
	"time"
)

// DefaultLimit bounds article listings when the caller doesn't.
const DefaultLimit = 50

type (
	// Feed represents an RSS feed's details.
	//
	// An ID of zero means the feed hasn't been stored yet.
	Feed struct {
		ID          int64      `db:"id"`
		URL         string     `db:"url"`
		Title       string     `db:"title"`
		Description string     `db:"description"`
		LastUpdated *time.Time `db:"last_updated"`
	}

	// Article represents a unique entry in a feed, deduplicated by its link.
	//
	// An ID of zero means the article hasn't been stored yet.
	Article struct {
		ID        int64      `db:"id"`
		FeedID    int64      `db:"feed_id"`
		Title     string     `db:"title"`
		Link      string     `db:"link"`
		Summary   string     `db:"summary"`
		Published *time.Time `db:"published"`
		Author    string     `db:"author"`
		Read      bool       `db:"read"`
	}

	// FeedStats counts the articles stored for a feed.
	FeedStats struct {
		FeedID int64 `db:"feed_id"`
		Total  int   `db:"total"`
		Unread int   `db:"unread"`
	}

	// Holds the optional fields for updating a feed.
	UpdateFeedArgs struct {
		Title       string
		Description string
		LastUpdated time.Time
	}
)

// FeedRepo is the storage surface for feeds.
//
// Lookups of a single row return nil with no error when nothing matches.
type FeedRepo interface {
	AddFeed(ctx context.Context, url, title, description string) (Feed, error)
	AllFeeds(ctx context.Context) ([]Feed, error)
	Feed(ctx context.Context, id int64) (*Feed, error)
	FeedByURL(ctx context.Context, url string) (*Feed, error)
	DeleteFeed(ctx context.Context, id int64) (bool, error)
	UpdateFeed(ctx context.Context, id int64, args UpdateFeedArgs) (bool, error)
	UpdateFeedLastUpdated(ctx context.Context, id int64, ts time.Time) (bool, error)
	FeedStats(ctx context.Context) (map[int64]FeedStats, error)
}

// ArticleRepo is the storage surface for articles.
type ArticleRepo interface {
	AddArticles(ctx context.Context, articles []Article) (int, error)
	ArticlesByFeed(ctx context.Context, feedID int64, limit int) ([]Article, error)
	UnreadArticles(ctx context.Context, limit int) ([]Article, error)
	Article(ctx context.Context, id int64) (*Article, error)
	MarkArticleRead(ctx context.Context, id int64) (bool, error)
}

// Repository is everything the app needs from storage.
type Repository interface {
	FeedRepo
	ArticleRepo
}
