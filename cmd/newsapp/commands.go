package main

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/harshitpdoshi/news-app/internal/agg"
	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
	"github.com/harshitpdoshi/news-app/internal/summarize"
)

// The article list shows fewer rows than the API does by default.
const defaultArticleLimit = 20

type options struct {
	Feed struct {
		Add       feedAddCmd       `command:"add" description:"Add a new RSS feed and pull its articles"`
		List      feedListCmd      `command:"list" description:"List all RSS feeds"`
		Update    feedUpdateCmd    `command:"update" description:"Update a specific feed"`
		UpdateAll feedUpdateAllCmd `command:"update-all" description:"Update all feeds"`
		Delete    feedDeleteCmd    `command:"delete" description:"Delete a feed and all its articles"`
	} `command:"feed" description:"Manage RSS feeds"`

	Article struct {
		List      articleListCmd      `command:"list" description:"List articles"`
		Read      articleReadCmd      `command:"read" description:"Read an article and mark it read"`
		Summarize articleSummarizeCmd `command:"summarize" description:"Summarize an article with Claude"`
	} `command:"article" description:"Manage articles"`

	Serve serveCmd `command:"serve" description:"Serve the JSON API and refresh feeds on a schedule"`
}

func newParser(a *app) *flags.Parser {
	var opts options
	opts.Feed.Add.app = a
	opts.Feed.List.app = a
	opts.Feed.Update.app = a
	opts.Feed.UpdateAll.app = a
	opts.Feed.Delete.app = a
	opts.Article.List.app = a
	opts.Article.Read.app = a
	opts.Article.Summarize.app = a
	opts.Serve.app = a

	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	p.Name = "newsapp"
	p.ShortDescription = "A command line RSS reader"

	return p
}

type feedAddCmd struct {
	Args struct {
		URL string `positional-arg-name:"url" required:"yes"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

func (c *feedAddCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	added, err := c.app.agg.AddFeed(c.app.ctx, c.Args.URL)
	if newserrs.Is(err, newserrs.KindFetch) {
		c.app.warnf("Error: Could not parse feed from %s", c.Args.URL)
		return nil
	}
	if err != nil {
		return err
	}

	c.app.successf("Successfully added feed: %s", added.Feed.Title)
	c.app.successf("Added %d articles from %s", added.Articles, added.Feed.Title)
	return nil
}

type feedListCmd struct {
	app *app
}

func (c *feedListCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	feeds, err := c.app.repo.AllFeeds(c.app.ctx)
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		c.app.warnf("No feeds found. Add a feed with: newsapp feed add <url>")
		return nil
	}

	stats, err := c.app.repo.FeedStats(c.app.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, renderFeeds(feeds, stats))
	return nil
}

type feedUpdateCmd struct {
	Args struct {
		FeedID int64 `positional-arg-name:"feed-id" required:"yes"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

func (c *feedUpdateCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	added, err := c.app.agg.UpdateFeed(c.app.ctx, c.Args.FeedID)
	if err != nil {
		return err
	}

	if added > 0 {
		c.app.successf("Added %d new articles", added)
	} else {
		c.app.warnf("No new articles found")
	}
	return nil
}

type feedUpdateAllCmd struct {
	app *app
}

func (c *feedUpdateAllCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	results, err := c.app.agg.UpdateAll(c.app.ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		c.app.warnf("No feeds to update")
		return nil
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("error updating %s: %w", r.Title, r.Err))
			continue
		}
		if r.Added > 0 {
			c.app.successf("Added %d articles from %s", r.Added, r.Title)
		}
	}

	if agg.Total(results) == 0 {
		c.app.warnf("No new articles found in any feeds")
	}
	return errors.Join(errs...)
}

type feedDeleteCmd struct {
	Args struct {
		FeedID int64 `positional-arg-name:"feed-id" required:"yes"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

func (c *feedDeleteCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	feed, err := c.app.repo.Feed(c.app.ctx, c.Args.FeedID)
	if err != nil {
		return err
	}
	if feed == nil {
		c.app.warnf("Feed not found")
		return nil
	}

	deleted, err := c.app.repo.DeleteFeed(c.app.ctx, feed.ID)
	if err != nil {
		return err
	}
	if !deleted {
		// Someone else got to it first.
		c.app.warnf("Feed not found")
		return nil
	}

	c.app.successf("Deleted feed: %s", feed.Title)
	return nil
}

type articleListCmd struct {
	FeedID int64 `long:"feed-id" description:"Only list articles from this feed"`
	Limit  int   `long:"limit" default:"20" description:"Number of articles to show"`

	app *app
}

func (c *articleListCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = defaultArticleLimit
	}

	var (
		articles []newsapp.Article
		err      error
	)
	if c.FeedID != 0 {
		articles, err = c.app.repo.ArticlesByFeed(c.app.ctx, c.FeedID, limit)
		if err != nil {
			return err
		}
		feed, err := c.app.repo.Feed(c.app.ctx, c.FeedID)
		if err != nil {
			return err
		}
		if feed != nil {
			c.app.panel("Articles from: " + feed.Title)
		}
	} else {
		articles, err = c.app.repo.UnreadArticles(c.app.ctx, limit)
		if err != nil {
			return err
		}
		c.app.panel("Unread Articles")
	}

	if len(articles) == 0 {
		c.app.warnf("No articles found")
		return nil
	}

	titles, err := c.app.feedTitles()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.app.out, renderArticles(articles, titles))
	return nil
}

type articleReadCmd struct {
	Args struct {
		ArticleID int64 `positional-arg-name:"article-id" required:"yes"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

func (c *articleReadCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}

	article, err := c.app.repo.Article(c.app.ctx, c.Args.ArticleID)
	if err != nil {
		return err
	}
	if article == nil {
		c.app.warnf("Article not found")
		return nil
	}

	if _, err := c.app.repo.MarkArticleRead(c.app.ctx, article.ID); err != nil {
		return err
	}

	feedTitle := "Unknown"
	feed, err := c.app.repo.Feed(c.app.ctx, article.FeedID)
	if err != nil {
		return err
	}
	if feed != nil {
		feedTitle = feed.Title
	}

	fmt.Fprintln(c.app.out, renderArticle(*article, feedTitle))
	return nil
}

type articleSummarizeCmd struct {
	Args struct {
		ArticleID int64 `positional-arg-name:"article-id" required:"yes"`
	} `positional-args:"yes" required:"yes"`

	app *app
}

func (c *articleSummarizeCmd) Execute(_ []string) error {
	summarizer, err := summarize.New(summarize.Config{
		APIKey: c.app.cfg.AnthropicAPIKey,
		Model:  c.app.cfg.SummaryModel,
	})
	if err != nil {
		return err
	}
	if err := c.app.open(); err != nil {
		return err
	}

	article, err := c.app.repo.Article(c.app.ctx, c.Args.ArticleID)
	if err != nil {
		return err
	}
	if article == nil {
		c.app.warnf("Article not found")
		return nil
	}

	summary, err := summarizer.Summarize(c.app.ctx, article.Link)
	if err != nil {
		return err
	}

	c.app.panel(article.Title)
	fmt.Fprintln(c.app.out, summary)
	return nil
}

// feedTitles maps every feed id to its title.
func (a *app) feedTitles() (map[int64]string, error) {
	feeds, err := a.repo.AllFeeds(a.ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(feeds))
	for _, f := range feeds {
		titles[f.ID] = f.Title
	}
	return titles, nil
}
