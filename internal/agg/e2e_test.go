package agg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshitpdoshi/news-app/internal/database"
	"github.com/harshitpdoshi/news-app/internal/fetch"
	"github.com/harshitpdoshi/news-app/internal/sqlite"
)

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Integration Feed</title>
    <description>Two posts</description>
    <item>
      <title>First</title>
      <link>https://example.com/first</link>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second</title>
      <link>https://example.com/second</link>
    </item>
  </channel>
</rss>`

func TestEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(twoEntryFeed))
	}))
	defer srv.Close()

	dbx, err := database.Open(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	defer dbx.Close()

	var (
		ctx  = context.Background()
		repo = sqlite.New(dbx)
		a    = New(repo, fetch.New(fetch.Config{Timeout: 2 * time.Second}), Config{})
	)

	res, err := a.AddFeed(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Integration Feed", res.Feed.Title)
	assert.Equal(t, 2, res.Articles)

	stored, err := repo.Feed(ctx, res.Feed.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUpdated)

	added, err := a.UpdateFeed(ctx, res.Feed.ID)
	require.NoError(t, err)
	assert.Zero(t, added)

	unread, err := repo.UnreadArticles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "First", unread[0].Title)
	assert.Nil(t, unread[1].Published)

	ok, err := repo.MarkArticleRead(ctx, unread[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	unread, err = repo.UnreadArticles(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	deleted, err := repo.DeleteFeed(ctx, res.Feed.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	articles, err := repo.ArticlesByFeed(ctx, res.Feed.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestEndToEnd_FeedMetadataFollowsSource(t *testing.T) {
	const renamed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Renamed Feed</title>
    <description>Now with a new name</description>
    <item>
      <title>First, edited</title>
      <link>https://example.com/first</link>
    </item>
  </channel>
</rss>`

	var body atomic.Value
	body.Store(twoEntryFeed)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body.Load().(string)))
	}))
	defer srv.Close()

	dbx, err := database.Open(filepath.Join(t.TempDir(), "rename.db"))
	require.NoError(t, err)
	defer dbx.Close()

	var (
		ctx  = context.Background()
		repo = sqlite.New(dbx)
		a    = New(repo, fetch.New(fetch.Config{Timeout: 2 * time.Second}), Config{})
	)

	res, err := a.AddFeed(ctx, srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Integration Feed", res.Feed.Title)

	body.Store(renamed)
	added, err := a.UpdateFeed(ctx, res.Feed.ID)
	require.NoError(t, err)
	assert.Zero(t, added)

	stored, err := repo.Feed(ctx, res.Feed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Feed", stored.Title)
	assert.Equal(t, "Now with a new name", stored.Description)

	// Stored articles keep what they had when first seen.
	articles, err := repo.ArticlesByFeed(ctx, res.Feed.ID, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "First", articles[0].Title)
}
