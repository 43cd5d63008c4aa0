package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"

	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

const feedColumns = "id, url, title, description, last_updated"

type feedRow struct {
	ID          int64     `db:"id"`
	URL         string    `db:"url"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	LastUpdated timestamp `db:"last_updated"`
}

func (r feedRow) feed() newsapp.Feed {
	return newsapp.Feed{
		ID:          r.ID,
		URL:         r.URL,
		Title:       r.Title,
		Description: r.Description,
		LastUpdated: r.LastUpdated.ptr(),
	}
}

// AddFeed inserts a feed, or returns the stored one untouched if the url is already present.
func (r Repo) AddFeed(ctx context.Context, url, title, description string) (newsapp.Feed, error) {
	const q = `INSERT INTO feeds (url, title, description) VALUES (?, ?, ?);`

	res, err := r.db.ExecContext(ctx, q, url, title, description)
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) && sqliteErr.Code() == uniqueViolation {
		existing, err := r.FeedByURL(ctx, url)
		if err != nil {
			return newsapp.Feed{}, err
		}
		if existing == nil {
			// Removed between the insert and the read.
			return r.AddFeed(ctx, url, title, description)
		}
		return *existing, nil
	}
	if err != nil {
		return newsapp.Feed{}, storageErr("error inserting feed", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return newsapp.Feed{}, storageErr("error reading feed id", err)
	}
	feed, err := r.Feed(ctx, id)
	if err != nil {
		return newsapp.Feed{}, err
	}
	if feed == nil {
		return newsapp.Feed{}, storageErr("error reading inserted feed", sql.ErrNoRows)
	}

	return *feed, nil
}

// AllFeeds retrieves _all_ feeds from the database, oldest first.
func (r Repo) AllFeeds(ctx context.Context) ([]newsapp.Feed, error) {
	const q = "SELECT " + feedColumns + " FROM feeds ORDER BY id;"

	var rows []feedRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, storageErr("error selecting all feeds", err)
	}

	feeds := make([]newsapp.Feed, 0, len(rows))
	for _, row := range rows {
		feeds = append(feeds, row.feed())
	}
	return feeds, nil
}

func (r Repo) Feed(ctx context.Context, id int64) (*newsapp.Feed, error) {
	const q = "SELECT " + feedColumns + " FROM feeds WHERE id = ?;"
	return r.getFeed(ctx, q, id)
}

func (r Repo) FeedByURL(ctx context.Context, url string) (*newsapp.Feed, error) {
	const q = "SELECT " + feedColumns + " FROM feeds WHERE url = ?;"
	return r.getFeed(ctx, q, url)
}

func (r Repo) getFeed(ctx context.Context, q string, arg any) (*newsapp.Feed, error) {
	var row feedRow
	err := r.db.GetContext(ctx, &row, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("error fetching feed", err)
	}

	feed := row.feed()
	return &feed, nil
}

// DeleteFeed removes a feed and all of its articles. It reports false, changing
// nothing, when there is no feed with that id.
func (r Repo) DeleteFeed(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storageErr("error beginning transaction", err)
	}
	defer tx.Rollback()

	// Articles first: the foreign key has no cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE feed_id = ?;`, id); err != nil {
		return false, storageErr("error deleting articles", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?;`, id)
	if err != nil {
		return false, storageErr("error deleting feed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("error deleting feed", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("error committing transaction", err)
	}

	return true, nil
}

// UpdateFeed sets whichever of the args are non-zero. It reports whether the feed exists.
func (r Repo) UpdateFeed(ctx context.Context, id int64, args newsapp.UpdateFeedArgs) (bool, error) {
	q := sq.Update("feeds")
	set := false
	if args.Title != "" {
		q = q.Set("title", args.Title)
		set = true
	}
	if args.Description != "" {
		q = q.Set("description", args.Description)
		set = true
	}
	if !args.LastUpdated.IsZero() {
		q = q.Set("last_updated", toTimestamp(&args.LastUpdated))
		set = true
	}
	if !set {
		feed, err := r.Feed(ctx, id)
		return feed != nil, err
	}
	q = q.Where(sq.Eq{"id": id})

	query, qArgs, err := q.ToSql()
	if err != nil {
		return false, storageErr("error constructing sql", err)
	}
	res, err := r.db.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return false, storageErr("error executing feed update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("error executing feed update", err)
	}

	return n > 0, nil
}

// UpdateFeedLastUpdated stamps when the feed was last refreshed.
func (r Repo) UpdateFeedLastUpdated(ctx context.Context, id int64, ts time.Time) (bool, error) {
	return r.UpdateFeed(ctx, id, newsapp.UpdateFeedArgs{LastUpdated: ts})
}

// FeedStats counts the total and unread articles of every feed.
func (r Repo) FeedStats(ctx context.Context) (map[int64]newsapp.FeedStats, error) {
	const q = `
	SELECT
		f.id AS feed_id,
		COUNT(a.id) AS total,
		COALESCE(SUM(CASE WHEN a.read = 0 THEN 1 ELSE 0 END), 0) AS unread
	FROM
		feeds f
		LEFT JOIN articles a ON a.feed_id = f.id
	GROUP BY f.id;
	`

	var rows []newsapp.FeedStats
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, storageErr("error counting articles", err)
	}

	stats := make(map[int64]newsapp.FeedStats, len(rows))
	for _, row := range rows {
		stats[row.FeedID] = row
	}
	return stats, nil
}
