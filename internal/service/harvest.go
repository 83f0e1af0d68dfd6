package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"listing_harvester/internal/config"
	"listing_harvester/internal/domain"
	"listing_harvester/internal/source/bazos"
)

// refreshEvery is how many categories are harvested between precautionary
// pool refreshes.
const refreshEvery = 3

// Storage groups the persistence collaborators. A nil *Storage makes every
// harvest scrape-only.
type Storage struct {
	Runs     RunRegistry
	Listings ListingStore
	Pool     PoolRefresher
}

type HarvestService struct {
	scraper          Scraper
	storage          *Storage
	publisher        Publisher
	logger           *slog.Logger
	config           config.ScrapeConfig
	classificationID *int64
}

func NewHarvestService(
	scraper Scraper,
	storage *Storage,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.ScrapeConfig,
	classificationID *int64,
) *HarvestService {
	return &HarvestService{
		scraper:          scraper,
		storage:          storage,
		publisher:        publisher,
		logger:           logger.With("source", bazos.SourceID),
		config:           cfg,
		classificationID: classificationID,
	}
}

// Harvest scrapes every configured category under the run identified by
// token. Database trouble degrades the run to scrape-only; a category that
// fails keeps whatever it gathered. Cancellation marks the run failed.
func (s *HarvestService) Harvest(ctx context.Context, token string) (*domain.HarvestStats, error) {
	startTime := time.Now()
	run := s.newRun(token, startTime)
	logger := s.logger.With("run_token", token)

	logger.Info("starting harvest",
		"categories", run.Categories,
		"max_listings", run.MaxListings,
		"detailed", s.detailed(),
	)

	stats := &domain.HarvestStats{RunToken: token}

	persist := s.storage != nil
	if persist {
		runID, err := s.storage.Runs.CreateOrReuse(ctx, run)
		if err != nil {
			logger.Error("failed to register run, continuing in scrape-only mode", "error", err)
			persist = false
		} else {
			run.ID = runID
			stats.RunID = runID
		}
	} else {
		logger.Warn("no database configured, running in scrape-only mode")
	}
	stats.ScrapeOnly = !persist

	for i, category := range run.Categories {
		if ctx.Err() != nil {
			break
		}

		if persist && i > 0 && i%refreshEvery == 0 {
			logger.Info("refreshing connection pool", "categories_done", i)
			if err := s.storage.Pool.Refresh(ctx); err != nil {
				logger.Warn("failed to refresh connection pool", "error", err)
			}
		}

		cs := s.harvestCategory(ctx, run, category, persist)
		stats.Categories = append(stats.Categories, cs)
		stats.Total += cs.Listings
	}

	status := domain.RunStatusCompleted
	if ctx.Err() != nil {
		status = domain.RunStatusFailed
	}

	var finalizeErr error
	if persist {
		if err := s.storage.Runs.Finalize(context.WithoutCancel(ctx), run.ID, status, stats.Total); err != nil {
			logger.Error("failed to finalize run", "run_id", run.ID, "error", err)
			finalizeErr = fmt.Errorf("finalize run: %w", err)
		}
	}

	stats.Duration = time.Since(startTime)

	logger.Info("harvest completed",
		"status", status,
		"total", stats.Total,
		"categories", len(stats.Categories),
		"scrape_only", stats.ScrapeOnly,
		"duration", stats.Duration,
	)

	if finalizeErr != nil {
		return stats, finalizeErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *HarvestService) harvestCategory(ctx context.Context, run *domain.Run, category string, persist bool) domain.CategoryStats {
	cs := domain.CategoryStats{Category: category}
	logger := s.logger.With("run_token", run.Token, "category", category)

	result, err := s.scraper.ScrapeCategory(ctx, category, run.MaxListings, s.query())
	if err != nil {
		logger.Warn("skipping category", "error", err)
		cs.Err = err
		return cs
	}
	cs.PagesFetched = result.PagesFetched
	cs.Err = result.Err

	listings := result.Listings
	if s.detailed() && len(listings) > 0 {
		logger.Info("scraping detailed data", "count", len(listings))
		listings, cs.Enriched = s.scraper.Enrich(ctx, listings)
	}
	cs.Listings = len(listings)

	if len(listings) == 0 {
		logger.Info("category produced no listings")
		return cs
	}

	// Whatever was gathered is delivered even if the harvest is being
	// cancelled.
	deliverCtx := context.WithoutCancel(ctx)

	if s.publisher != nil {
		batch := &domain.ListingBatch{RunToken: run.Token, Category: category, Listings: listings}
		if err := s.publisher.PublishBatch(deliverCtx, batch); err != nil {
			logger.Warn("failed to publish batch", "error", err)
		} else {
			cs.Published = true
		}
	}

	if persist {
		n, err := s.store(deliverCtx, run.ID, listings)
		if err != nil {
			logger.Error("failed to store listings", "count", len(listings), "error", err)
		} else {
			cs.Persisted = true
			logger.Info("listings stored", "count", n)
		}
	}

	return cs
}

// store writes a batch, refreshing the pool and trying once more when the
// store gave up on a connectivity failure.
func (s *HarvestService) store(ctx context.Context, runID int64, listings []domain.Listing) (int, error) {
	n, err := s.storage.Listings.UpsertBatch(ctx, runID, listings)
	if err == nil || !errors.Is(err, domain.ErrConnectivity) {
		return n, err
	}

	s.logger.Warn("storing listings failed, refreshing pool and retrying", "run_id", runID, "error", err)
	if rerr := s.storage.Pool.Refresh(ctx); rerr != nil {
		return 0, fmt.Errorf("refresh pool after %w: %v", err, rerr)
	}
	return s.storage.Listings.UpsertBatch(ctx, runID, listings)
}

func (s *HarvestService) newRun(token string, startTime time.Time) *domain.Run {
	run := &domain.Run{
		Token:            token,
		StartTime:        startTime,
		Status:           domain.RunStatusRunning,
		Categories:       s.config.Categories,
		MaxListings:      s.maxListings(),
		ClassificationID: s.classificationID,
	}
	if s.config.SearchQuery != "" {
		q := s.config.SearchQuery
		run.SearchQuery = &q
	}
	if s.config.Location != "" {
		loc := s.config.Location
		run.LocationFilter = &loc
	}
	if s.config.PriceMin > 0 {
		p := s.config.PriceMin
		run.PriceMin = &p
	}
	if s.config.PriceMax > 0 {
		p := s.config.PriceMax
		run.PriceMax = &p
	}
	return run
}

func (s *HarvestService) query() bazos.Query {
	return bazos.Query{
		SearchQuery: s.config.SearchQuery,
		Location:    s.config.Location,
		PriceMin:    s.config.PriceMin,
		PriceMax:    s.config.PriceMax,
	}
}

func (s *HarvestService) maxListings() int {
	if s.config.MaxListings == nil {
		return 0
	}
	return *s.config.MaxListings
}

func (s *HarvestService) detailed() bool {
	return s.config.IncludeDetailedData == nil || *s.config.IncludeDetailedData
}
