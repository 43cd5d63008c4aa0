// Newsapp is a personal RSS reader.
//
// It keeps feeds and their articles in a local sqlite database, pulls new
// articles on demand or on a schedule, and serves everything over a JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/harshitpdoshi/news-app/internal/agg"
	"github.com/harshitpdoshi/news-app/internal/database"
	"github.com/harshitpdoshi/news-app/internal/fetch"
	"github.com/harshitpdoshi/news-app/internal/logger"
	"github.com/harshitpdoshi/news-app/internal/metrics"
	"github.com/harshitpdoshi/news-app/internal/sqlite"
)

type config struct {
	Database string `env:"DATABASE, default=feeds.db"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=warn"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT, default=10s"`
	FetchRetries uint64        `env:"FETCH_RETRIES, default=2"`
	Workers      int           `env:"WORKERS, default=4"`

	Port               int    `env:"PORT, default=4444"`
	RefreshSchedule    string `env:"REFRESH_SCHEDULE, default=@every 15m"`
	CorsOrigin         string `env:"CORS_ORIGIN, default=*"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	SummaryModel       string `env:"SUMMARY_MODEL"`
	SummariesPerMinute int    `env:"SUMMARIES_PER_MINUTE, default=6"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Logs go to stderr so command output stays clean
	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, cfg.LogLevel))

	a := &app{ctx: ctx, cfg: cfg, out: os.Stdout}
	code := a.run(os.Args[1:])
	a.close()
	cancel()

	os.Exit(code)
}

// app holds what every command needs. The database is only opened once a
// command actually runs.
type app struct {
	ctx context.Context
	cfg config
	out io.Writer

	dbx  *sqlx.DB
	repo sqlite.Repo
	agg  *agg.Aggregator
	reg  *prometheus.Registry
}

// run executes the command in args and returns the process exit code.
func (a *app) run(args []string) int {
	p := newParser(a)
	if _, err := p.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(a.out, flagsErr.Message)
			return 0
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %s", err)))
		return 1
	}

	return 0
}

// open connects to the database and builds the aggregator on top of it.
func (a *app) open() error {
	if a.dbx != nil {
		return nil
	}

	dbx, err := database.Open(a.cfg.Database)
	if err != nil {
		return err
	}

	a.dbx = dbx
	a.repo = sqlite.New(dbx)
	a.reg = prometheus.NewRegistry()
	a.agg = agg.New(a.repo, fetch.New(fetch.Config{
		Timeout: a.cfg.FetchTimeout,
		Retries: a.cfg.FetchRetries,
	}), agg.Config{
		Workers: a.cfg.Workers,
		Metrics: metrics.NewCollector(a.reg),
	})

	return nil
}

func (a *app) close() {
	if a.dbx != nil {
		a.dbx.Close()
	}
}
