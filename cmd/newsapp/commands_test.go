package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>CLI Feed</title>
    <description>For the command tests</description>
    <item>
      <title>Dated Post</title>
      <link>https://example.com/dated</link>
      <description>Something happened</description>
      <author>jane@example.com (Jane)</author>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Undated Post</title>
      <link>https://example.com/undated</link>
    </item>
  </channel>
</rss>`

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	a := &app{
		ctx: context.Background(),
		cfg: config{
			Database:     filepath.Join(t.TempDir(), "cli.db"),
			FetchTimeout: 2 * time.Second,
			Workers:      2,
		},
		out: &out,
	}
	t.Cleanup(a.close)

	return a, &out
}

func writeFeed(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(cliFeed), 0o600))
	return path
}

// exec runs one command and returns what it printed.
func exec(t *testing.T, a *app, out *bytes.Buffer, args ...string) (string, int) {
	t.Helper()

	out.Reset()
	code := a.run(args)
	return out.String(), code
}

func TestFeedAdd(t *testing.T) {
	a, out := newTestApp(t)
	path := writeFeed(t)

	got, code := exec(t, a, out, "feed", "add", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Successfully added feed: CLI Feed")
	assert.Contains(t, got, "Added 2 articles from CLI Feed")

	// Adding it again only refreshes it
	got, code = exec(t, a, out, "feed", "add", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Added 0 articles from CLI Feed")

	feeds, err := a.repo.AllFeeds(a.ctx)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)
}

func TestFeedAdd_Unparseable(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "feed", "add", filepath.Join(t.TempDir(), "missing.xml"))
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Could not parse feed from")
}

func TestFeedList(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "feed", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No feeds found")

	path := writeFeed(t)
	_, code = exec(t, a, out, "feed", "add", path)
	require.Equal(t, 0, code)

	got, code = exec(t, a, out, "feed", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "CLI Feed")
	assert.Contains(t, got, path)
	assert.Contains(t, got, "Unread")
}

func TestFeedUpdate(t *testing.T) {
	a, out := newTestApp(t)
	_, code := exec(t, a, out, "feed", "add", writeFeed(t))
	require.Equal(t, 0, code)

	got, code := exec(t, a, out, "feed", "update", "1")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No new articles found")

	// Unknown feeds are a no-op
	got, code = exec(t, a, out, "feed", "update", "99")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No new articles found")
}

func TestFeedUpdateAll(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "feed", "update-all")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No feeds to update")

	_, code = exec(t, a, out, "feed", "add", writeFeed(t))
	require.Equal(t, 0, code)

	got, code = exec(t, a, out, "feed", "update-all")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No new articles found in any feeds")
}

func TestFeedDelete(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "feed", "delete", "1")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Feed not found")

	_, code = exec(t, a, out, "feed", "add", writeFeed(t))
	require.Equal(t, 0, code)

	got, code = exec(t, a, out, "feed", "delete", "1")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Deleted feed: CLI Feed")

	got, _ = exec(t, a, out, "article", "list")
	assert.Contains(t, got, "No articles found")
}

func TestArticleList(t *testing.T) {
	a, out := newTestApp(t)
	_, code := exec(t, a, out, "feed", "add", writeFeed(t))
	require.Equal(t, 0, code)

	got, code := exec(t, a, out, "article", "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Unread Articles")
	assert.Contains(t, got, "Dated Post")
	assert.Contains(t, got, "Undated Post")
	assert.Contains(t, got, "Unknown")

	got, code = exec(t, a, out, "article", "list", "--feed-id", "1", "--limit", "1")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Articles from: CLI Feed")
	assert.Contains(t, got, "Dated Post")
	assert.NotContains(t, got, "Undated Post")

	got, code = exec(t, a, out, "article", "list", "--feed-id", "42")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No articles found")
}

func TestArticleRead(t *testing.T) {
	a, out := newTestApp(t)
	_, code := exec(t, a, out, "feed", "add", writeFeed(t))
	require.Equal(t, 0, code)

	articles, err := a.repo.ArticlesByFeed(a.ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	dated := articles[0]

	got, code := exec(t, a, out, "article", "read", itoa(dated.ID))
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Dated Post")
	assert.Contains(t, got, "CLI Feed")
	assert.Contains(t, got, "Something happened")
	assert.Contains(t, got, "https://example.com/dated")

	stored, err := a.repo.Article(a.ctx, dated.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)

	got, _ = exec(t, a, out, "article", "list")
	assert.NotContains(t, got, "Dated Post")
	assert.Contains(t, got, "Undated Post")

	got, code = exec(t, a, out, "article", "read", itoa(articles[1].ID))
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "No summary available.")
}

func TestArticleRead_NotFound(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "article", "read", "7")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "Article not found")
}

func TestArticleSummarize_NoKey(t *testing.T) {
	a, out := newTestApp(t)

	_, code := exec(t, a, out, "article", "summarize", "1")
	assert.Equal(t, 1, code)
}

func TestStorageFailureExitsNonZero(t *testing.T) {
	a, out := newTestApp(t)
	// A directory can't be opened as a database
	a.cfg.Database = t.TempDir()

	_, code := exec(t, a, out, "feed", "list")
	assert.Equal(t, 1, code)
}

func TestHelp(t *testing.T) {
	a, out := newTestApp(t)

	got, code := exec(t, a, out, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, got, "feed")
	assert.Contains(t, got, "article")
	assert.Contains(t, got, "serve")
}

func TestBadArguments(t *testing.T) {
	a, out := newTestApp(t)

	_, code := exec(t, a, out, "feed", "update", "not-a-number")
	assert.Equal(t, 1, code)

	_, code = exec(t, a, out, "feed")
	assert.Equal(t, 1, code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
