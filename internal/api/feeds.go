package api

import (
	"net/http"

	"github.com/gorilla/mux"

	v1 "github.com/harshitpdoshi/news-app/api/v1"
	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
	"github.com/harshitpdoshi/news-app/internal/serverutil"
)

func apiFeed(f newsapp.Feed, stats newsapp.FeedStats) v1.Feed {
	return v1.Feed{
		ID:          f.ID,
		URL:         f.URL,
		Title:       f.Title,
		Description: f.Description,
		LastUpdated: f.LastUpdated,
		Articles:    stats.Total,
		Unread:      stats.Unread,
	}
}

var errFeedNotFound = newserrs.E(newserrs.KindNotFound, "feed not found")

func (s Server) getFeeds(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	feeds, err := s.repo.AllFeeds(ctx)
	if err != nil {
		return err
	}
	stats, err := s.repo.FeedStats(ctx)
	if err != nil {
		return err
	}

	resp := v1.ListFeedsResponse{Feeds: make([]v1.Feed, 0, len(feeds))}
	for _, f := range feeds {
		resp.Feeds = append(resp.Feeds, apiFeed(f, stats[f.ID]))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s Server) postFeeds(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[v1.CreateFeedRequest](r.Body)
	if err != nil {
		return err
	}

	added, err := s.updater.AddFeed(r.Context(), body.URL)
	if err != nil {
		return err
	}
	// The url may already have been stored, so count everything it has.
	stats, err := s.repo.FeedStats(r.Context())
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusCreated, v1.CreateFeedResponse{
		Feed:  apiFeed(added.Feed, stats[added.Feed.ID]),
		Added: added.Articles,
	})
}

// feed loads the feed named in the path, or fails with a 404.
func (s Server) feed(r *http.Request) (newsapp.Feed, error) {
	id, err := parseID(mux.Vars(r)["feedID"], "feed_id")
	if err != nil {
		return newsapp.Feed{}, err
	}

	feed, err := s.repo.Feed(r.Context(), id)
	if err != nil {
		return newsapp.Feed{}, err
	}
	if feed == nil {
		return newsapp.Feed{}, errFeedNotFound
	}

	return *feed, nil
}

func (s Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	feed, err := s.feed(r)
	if err != nil {
		return err
	}
	stats, err := s.repo.FeedStats(r.Context())
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiFeed(feed, stats[feed.ID]))
}

func (s Server) deleteFeed(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(mux.Vars(r)["feedID"], "feed_id")
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteFeed(r.Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return errFeedNotFound
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s Server) postRefreshFeed(w http.ResponseWriter, r *http.Request) error {
	feed, err := s.feed(r)
	if err != nil {
		return err
	}

	added, err := s.updater.UpdateFeed(r.Context(), feed.ID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.RefreshResult{
		FeedID: feed.ID,
		Title:  feed.Title,
		Added:  added,
	})
}

func (s Server) postRefreshAll(w http.ResponseWriter, r *http.Request) error {
	results, err := s.updater.UpdateAll(r.Context())
	if err != nil {
		return err
	}

	resp := v1.RefreshAllResponse{Results: make([]v1.RefreshResult, 0, len(results))}
	for _, res := range results {
		out := v1.RefreshResult{FeedID: res.FeedID, Title: res.Title, Added: res.Added}
		if res.Err != nil {
			out.Error = newserrs.KindOf(res.Err).String()
		}
		resp.Results = append(resp.Results, out)
		resp.Added += res.Added
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}
