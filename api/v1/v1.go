// Package v1 holds the request and response bodies of the JSON API.
package v1

import (
	"time"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/fetch"
)

type (
	Feed struct {
		ID          int64      `json:"id"`
		URL         string     `json:"url"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		LastUpdated *time.Time `json:"last_updated"`
		Articles    int        `json:"articles"`
		Unread      int        `json:"unread"`
	}

	Article struct {
		ID        int64      `json:"id"`
		FeedID    int64      `json:"feed_id"`
		Title     string     `json:"title"`
		Link      string     `json:"link"`
		Summary   string     `json:"summary"`
		Published *time.Time `json:"published"`
		Author    string     `json:"author"`
		Read      bool       `json:"read"`
	}

	ListFeedsResponse struct {
		Feeds []Feed `json:"feeds"`
	}

	CreateFeedRequest struct {
		URL string `json:"url"`
	}

	CreateFeedResponse struct {
		Feed  Feed `json:"feed"`
		Added int  `json:"added"`
	}

	RefreshResult struct {
		FeedID int64  `json:"feed_id"`
		Title  string `json:"title,omitempty"`
		Added  int    `json:"added"`
		Error  string `json:"error,omitempty"`
	}

	RefreshAllResponse struct {
		Results []RefreshResult `json:"results"`
		Added   int             `json:"added"`
	}

	ListArticlesResponse struct {
		Articles []Article `json:"articles"`
		Limit    int       `json:"limit"`
	}

	ReaderResponse struct {
		Article Article `json:"article"`
		Title   string  `json:"title"`
		Byline  string  `json:"byline"`
		Content string  `json:"content"`
	}

	SummaryResponse struct {
		ArticleID int64  `json:"article_id"`
		Summary   string `json:"summary"`
	}
)

// Validate checks that the body (minus logic checks) is valid.
//
// Returns an invalid-kind error carrying the offending fields.
func (r CreateFeedRequest) Validate() error {
	errs := []newserrs.Detail{}
	switch {
	case r.URL == "":
		errs = append(errs, newserrs.Detail{
			Field: "url",
			Error: "url is required",
		})
	case !fetch.Supported(r.URL):
		errs = append(errs, newserrs.Detail{
			Field: "url",
			Error: "url must be http(s) or a file",
		})
	}
	if len(errs) > 0 {
		return newserrs.E(newserrs.KindInvalid, "request was invalid", errs)
	}

	return nil
}
