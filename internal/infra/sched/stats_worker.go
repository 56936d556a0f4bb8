package sched

import (
	"context"
	"fmt"
	"time"

	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	jobActiveEntitlements = "active_entitlements"
	jobTimeout            = 30 * time.Second
)

// StatsSource reports active entitlements per category.
type StatsSource interface {
	ActiveByCategory(ctx context.Context) (map[model.Category]int, error)
}

// PoolStatsFunc returns total, idle and in-use connection counts.
type PoolStatsFunc func() (total, idle, inUse int32)

// StatsWorker refreshes the entitlement and pool gauges on a cron schedule.
// It only reads; access decisions never depend on it.
type StatsWorker struct {
	schedule string
	stats    StatsSource
	pool     PoolStatsFunc // optional
	log      *zerolog.Logger
}

func NewStatsWorker(spec string, stats StatsSource, pool PoolStatsFunc, logger *zerolog.Logger) (*StatsWorker, error) {
	if spec == "" {
		spec = "@every 1m"
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid stats cron %q: %w", spec, err)
	}
	l := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{schedule: spec, stats: stats, pool: pool, log: &l}, nil
}

// Run refreshes once, then on every tick until ctx is done.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Str("schedule", w.schedule).Msg("Starting stats worker")

	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return err
	}
	w.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info().Msg("Stopping stats worker")
	return ctx.Err()
}

// RunOnce performs a single refresh. Failures are logged and counted.
func (w *StatsWorker) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if w.pool != nil {
		metrics.SetDBPoolStats(w.pool())
	}

	counts, err := w.stats.ActiveByCategory(runCtx)
	if err != nil {
		metrics.IncJobRun(jobActiveEntitlements, "error")
		w.log.Error().Err(err).Msg("active entitlements refresh failed")
		return
	}
	for cat, n := range counts {
		metrics.SetActiveEntitlements(string(cat), n)
	}
	metrics.IncJobRun(jobActiveEntitlements, "ok")
	w.log.Debug().Interface("active", counts).Msg("active entitlements refreshed")
}
