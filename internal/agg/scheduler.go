package agg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes every feed four times an hour.
const DefaultSchedule = "@every 15m"

// Scheduler runs UpdateAll on a cron schedule. A run that comes due while the
// previous one is still going is skipped.
type Scheduler struct {
	agg      *Aggregator
	schedule cron.Schedule
	spec     string
}

func NewScheduler(a *Aggregator, spec string) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	return &Scheduler{agg: a, schedule: schedule, spec: spec}, nil
}

// Run blocks until ctx is done, then waits for an in-flight refresh to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	l := cronLogger{}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		results, err := s.agg.UpdateAll(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "scheduled refresh failed", "error", err)
			return
		}
		slog.InfoContext(ctx, "scheduled refresh", "feeds", len(results), "added", Total(results))
	}))

	c.Start()
	slog.Debug("started refresh scheduler", "schedule", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

// cronLogger sends cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
