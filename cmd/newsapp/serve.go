package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/run"

	"github.com/harshitpdoshi/news-app/internal/agg"
	"github.com/harshitpdoshi/news-app/internal/api"
	"github.com/harshitpdoshi/news-app/internal/summarize"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	app *app
}

func (c *serveCmd) Execute(_ []string) error {
	if err := c.app.open(); err != nil {
		return err
	}
	cfg := c.app.cfg

	scheduler, err := agg.NewScheduler(c.app.agg, cfg.RefreshSchedule)
	if err != nil {
		return err
	}

	// The reader view works without a key; summaries don't.
	var (
		reader     api.PageReader = summarize.NewReader(0)
		summarizer api.Summarizer
	)
	if cfg.AnthropicAPIKey != "" {
		s, err := summarize.New(summarize.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.SummaryModel,
		})
		if err != nil {
			return err
		}
		reader, summarizer = s.Reader(), s
	} else {
		slog.Warn("ANTHROPIC_API_KEY is not set, summaries are disabled")
	}

	srvr := api.NewServer(api.ServerConfig{
		Port:               cfg.Port,
		CorsOrigin:         cfg.CorsOrigin,
		SummariesPerMinute: cfg.SummariesPerMinute,
	}, c.app.repo, c.app.agg, reader, summarizer, c.app.reg)

	ctx, cancel := context.WithCancel(c.app.ctx)
	defer cancel()

	var g run.Group
	g.Add(func() error {
		slog.Info("starting api server", "port", cfg.Port)
		if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving api: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srvr.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down api server", "error", err)
		}
	})
	// Returns once the process is signaled, which stops the server too.
	g.Add(func() error {
		return scheduler.Run(ctx)
	}, func(error) {
		cancel()
	})

	err = g.Run()
	slog.Info("stopped")
	return err
}
