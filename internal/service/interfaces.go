package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"listing_harvester/internal/domain"
	"listing_harvester/internal/source/bazos"
)

type Scraper interface {
	ScrapeCategory(ctx context.Context, category string, maxListings int, q bazos.Query) (*bazos.CategoryResult, error)
	Enrich(ctx context.Context, listings []domain.Listing) ([]domain.Listing, int)
}

type RunRegistry interface {
	CreateOrReuse(ctx context.Context, run *domain.Run) (int64, error)
	Finalize(ctx context.Context, runID int64, status domain.RunStatus, total int) error
}

type ListingStore interface {
	UpsertBatch(ctx context.Context, runID int64, listings []domain.Listing) (int, error)
}

type PoolRefresher interface {
	Refresh(ctx context.Context) error
}

type Publisher interface {
	PublishBatch(ctx context.Context, batch *domain.ListingBatch) error
	Close() error
}
