package api

import (
	"net/http"

	"github.com/gorilla/mux"

	v1 "github.com/harshitpdoshi/news-app/api/v1"
	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
	"github.com/harshitpdoshi/news-app/internal/serverutil"
)

func apiArticle(a newsapp.Article) v1.Article {
	return v1.Article{
		ID:        a.ID,
		FeedID:    a.FeedID,
		Title:     a.Title,
		Link:      a.Link,
		Summary:   a.Summary,
		Published: a.Published,
		Author:    a.Author,
		Read:      a.Read,
	}
}

var errArticleNotFound = newserrs.E(newserrs.KindNotFound, "article not found")

// getArticles lists a feed's articles when ?feed_id= is given, and every
// unread article otherwise.
func (s Server) getArticles(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	limit, err := parseLimit(r, newsapp.DefaultLimit)
	if err != nil {
		return err
	}

	var articles []newsapp.Article
	if raw := r.URL.Query().Get("feed_id"); raw != "" {
		feedID, err := parseID(raw, "feed_id")
		if err != nil {
			return err
		}
		feed, err := s.repo.Feed(ctx, feedID)
		if err != nil {
			return err
		}
		if feed == nil {
			return errFeedNotFound
		}

		articles, err = s.repo.ArticlesByFeed(ctx, feedID, limit)
		if err != nil {
			return err
		}
	} else {
		articles, err = s.repo.UnreadArticles(ctx, limit)
		if err != nil {
			return err
		}
	}

	resp := v1.ListArticlesResponse{Articles: make([]v1.Article, 0, len(articles)), Limit: limit}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, apiArticle(a))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

// article loads the article named in the path, or fails with a 404.
func (s Server) article(r *http.Request) (newsapp.Article, error) {
	id, err := parseID(mux.Vars(r)["articleID"], "article_id")
	if err != nil {
		return newsapp.Article{}, err
	}

	article, err := s.repo.Article(r.Context(), id)
	if err != nil {
		return newsapp.Article{}, err
	}
	if article == nil {
		return newsapp.Article{}, errArticleNotFound
	}

	return *article, nil
}

func (s Server) getArticle(w http.ResponseWriter, r *http.Request) error {
	article, err := s.article(r)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiArticle(article))
}

func (s Server) postArticleRead(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(mux.Vars(r)["articleID"], "article_id")
	if err != nil {
		return err
	}

	ok, err := s.repo.MarkArticleRead(r.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return errArticleNotFound
	}

	article, err := s.article(r)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiArticle(article))
}

func (s Server) getArticleReader(w http.ResponseWriter, r *http.Request) error {
	article, err := s.article(r)
	if err != nil {
		return err
	}

	page, err := s.reader.Read(r.Context(), article.Link)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.ReaderResponse{
		Article: apiArticle(article),
		Title:   page.Title,
		Byline:  page.Byline,
		Content: page.Content,
	})
}

func (s Server) postArticleSummary(w http.ResponseWriter, r *http.Request) error {
	if s.summarizer == nil {
		return newserrs.E(http.StatusServiceUnavailable, "summaries are not configured")
	}

	article, err := s.article(r)
	if err != nil {
		return err
	}

	if !s.limiter.Allow() {
		return newserrs.E(http.StatusTooManyRequests, "too many summary requests, try again later")
	}

	summary, err := s.summarizer.Summarize(r.Context(), article.Link)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.SummaryResponse{
		ArticleID: article.ID,
		Summary:   summary,
	})
}
