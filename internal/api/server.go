// Package api serves feeds and articles over a JSON HTTP API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/harshitpdoshi/news-app/internal/agg"
	"github.com/harshitpdoshi/news-app/internal/metrics"
	"github.com/harshitpdoshi/news-app/internal/newsapp"
	"github.com/harshitpdoshi/news-app/internal/serverutil"
	"github.com/harshitpdoshi/news-app/internal/summarize"
)

type (
	// Updater is the orchestration the API triggers.
	Updater interface {
		AddFeed(ctx context.Context, url string) (agg.Added, error)
		UpdateFeed(ctx context.Context, feedID int64) (int, error)
		UpdateAll(ctx context.Context) ([]agg.Result, error)
	}

	PageReader interface {
		Read(ctx context.Context, link string) (summarize.Page, error)
	}

	Summarizer interface {
		Summarize(ctx context.Context, link string) (string, error)
	}

	// Server handles requests to browse and manage feeds.
	Server struct {
		*http.Server

		repo       newsapp.Repository
		updater    Updater
		reader     PageReader
		summarizer Summarizer // nil when no API key is configured
		limiter    *rate.Limiter
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
		// SummariesPerMinute bounds calls to the summary endpoint.
		SummariesPerMinute int
	}
)

const defaultSummariesPerMinute = 6

func NewServer(
	config ServerConfig,
	repo newsapp.Repository,
	updater Updater,
	reader PageReader,
	summarizer Summarizer,
	gatherer prometheus.Gatherer,
) *Server {
	if config.SummariesPerMinute <= 0 {
		config.SummariesPerMinute = defaultSummariesPerMinute
	}
	if config.CorsOrigin == "" {
		config.CorsOrigin = "*"
	}

	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	srvr := Server{
		repo:       repo,
		updater:    updater,
		reader:     reader,
		summarizer: summarizer,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.SummariesPerMinute)), config.SummariesPerMinute),
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			ReadTimeout: 5 * time.Second,
			// Refreshing every feed or summarizing can take a while.
			WriteTimeout: 2 * time.Minute,
			Handler: handlers.RecoveryHandler(handlers.RecoveryLogger(serverutil.RecoveryLogger{}))(
				handlers.CORS(
					handlers.AllowedOrigins([]string{config.CorsOrigin}),
					handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
					handlers.AllowedHeaders([]string{"content-type"}),
				)(r),
			),
		},
	}

	r.Use(serverutil.RequestIDMiddleware)
	r.Use(serverutil.AccessLogMiddleware) // Log everything

	r.HandleFuncE("/healthz", srvr.getHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(gatherer)).Methods(http.MethodGet)

	// Feeds
	r.HandleFuncE("/api/feeds", srvr.getFeeds).Methods(http.MethodGet)
	r.HandleFuncE("/api/feeds", srvr.postFeeds).Methods(http.MethodPost)
	r.HandleFuncE("/api/feeds/refresh", srvr.postRefreshAll).Methods(http.MethodPost)
	r.HandleFuncE("/api/feeds/{feedID:[0-9]+}", srvr.getFeed).Methods(http.MethodGet)
	r.HandleFuncE("/api/feeds/{feedID:[0-9]+}", srvr.deleteFeed).Methods(http.MethodDelete)
	r.HandleFuncE("/api/feeds/{feedID:[0-9]+}/refresh", srvr.postRefreshFeed).Methods(http.MethodPost)

	// Articles
	r.HandleFuncE("/api/articles", srvr.getArticles).Methods(http.MethodGet)
	r.HandleFuncE("/api/articles/{articleID:[0-9]+}", srvr.getArticle).Methods(http.MethodGet)
	r.HandleFuncE("/api/articles/{articleID:[0-9]+}/read", srvr.postArticleRead).Methods(http.MethodPost)

	// Reader view and summaries
	r.HandleFuncE("/api/articles/{articleID:[0-9]+}/reader", srvr.getArticleReader).Methods(http.MethodGet)
	r.HandleFuncE("/api/articles/{articleID:[0-9]+}/summary", srvr.postArticleSummary).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}

func (s Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
