package scheduler

import (
	"context"
	"log/slog"
	"time"

	"listing_harvester/internal/domain"
)

// Harvester runs one harvest under the given run token.
type Harvester interface {
	Harvest(ctx context.Context, token string) (*domain.HarvestStats, error)
}

// Scheduler runs harvests once or on a fixed interval. The configured token
// is used for the first harvest only; later ones get a generated token so
// each run keeps its own rows.
type Scheduler struct {
	harvester Harvester
	interval  time.Duration
	token     string
	now       func() time.Time
	logger    *slog.Logger
}

func NewScheduler(harvester Harvester, interval time.Duration, token string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		harvester: harvester,
		interval:  interval,
		token:     token,
		now:       time.Now,
		logger:    logger,
	}
}

// Start harvests immediately and then on every tick until ctx is done. With
// a zero interval it harvests once and returns the harvest's error.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return s.runHarvest(ctx)
	}

	s.logger.Info("scheduler started", "interval", s.interval)

	_ = s.runHarvest(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			_ = s.runHarvest(ctx)
		}
	}
}

func (s *Scheduler) runHarvest(ctx context.Context) error {
	token := s.nextToken()

	stats, err := s.harvester.Harvest(ctx, token)
	if err != nil {
		s.logger.Error("harvest failed", "run_token", token, "error", err)
		return err
	}

	s.logger.Info("harvest finished",
		"run_token", token,
		"total", stats.Total,
		"scrape_only", stats.ScrapeOnly,
		"duration", stats.Duration,
	)
	return nil
}

func (s *Scheduler) nextToken() string {
	if s.token != "" {
		token := s.token
		s.token = ""
		return token
	}
	return "local-" + s.now().Format("20060102-150405")
}
