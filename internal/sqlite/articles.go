package sqlite

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/harshitpdoshi/news-app/internal/newsapp"
)

var articleColumns = []string{"id", "feed_id", "title", "link", "summary", "published", "author", "read"}

type articleRow struct {
	ID        int64     `db:"id"`
	FeedID    int64     `db:"feed_id"`
	Title     string    `db:"title"`
	Link      string    `db:"link"`
	Summary   string    `db:"summary"`
	Published timestamp `db:"published"`
	Author    string    `db:"author"`
	Read      bool      `db:"read"`
}

func (r articleRow) article() newsapp.Article {
	return newsapp.Article{
		ID:        r.ID,
		FeedID:    r.FeedID,
		Title:     r.Title,
		Link:      r.Link,
		Summary:   r.Summary,
		Published: r.Published.ptr(),
		Author:    r.Author,
		Read:      r.Read,
	}
}

// AddArticles inserts the batch in one transaction and returns how many rows
// were new. Articles whose link is already stored are skipped, never updated.
func (r Repo) AddArticles(ctx context.Context, articles []newsapp.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storageErr("error beginning transaction", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO articles (feed_id, title, link, summary, published, author, read)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(link) DO NOTHING;`
	stmt, err := tx.PreparexContext(ctx, q)
	if err != nil {
		return 0, storageErr("error preparing insert", err)
	}
	defer stmt.Close()

	added := 0
	for _, a := range articles {
		res, err := stmt.ExecContext(ctx, a.FeedID, a.Title, a.Link, a.Summary, toTimestamp(a.Published), a.Author, a.Read)
		if err != nil {
			return 0, storageErr("error inserting article", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, storageErr("error inserting article", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("error committing transaction", err)
	}

	return added, nil
}

// ArticlesByFeed lists a feed's articles, newest first.
func (r Repo) ArticlesByFeed(ctx context.Context, feedID int64, limit int) ([]newsapp.Article, error) {
	return r.listArticles(ctx, sq.Eq{"feed_id": feedID}, limit)
}

// UnreadArticles lists unread articles across all feeds, newest first.
func (r Repo) UnreadArticles(ctx context.Context, limit int) ([]newsapp.Article, error) {
	return r.listArticles(ctx, sq.Eq{"read": false}, limit)
}

// Articles without a publish date sort after every dated one; inserts break ties.
func (r Repo) listArticles(ctx context.Context, where sq.Sqlizer, limit int) ([]newsapp.Article, error) {
	if limit <= 0 {
		limit = newsapp.DefaultLimit
	}

	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy("published IS NULL", "published DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, storageErr("error constructing sql", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("error selecting articles", err)
	}

	articles := make([]newsapp.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.article())
	}
	return articles, nil
}

func (r Repo) Article(ctx context.Context, id int64) (*newsapp.Article, error) {
	query, args, err := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, storageErr("error constructing sql", err)
	}

	var row articleRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("error fetching article", err)
	}

	article := row.article()
	return &article, nil
}

// MarkArticleRead reports whether the id matched, including articles that were already read.
func (r Repo) MarkArticleRead(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE articles SET read = 1 WHERE id = ?;`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, storageErr("error marking article read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("error marking article read", err)
	}

	return n > 0, nil
}
