package bazos

import (
	"context"
	"log/slog"
	"time"

	"listing_harvester/internal/domain"
	"listing_harvester/internal/metrics"
)

const (
	SourceID   = "bazos"
	SourceName = "Bazos.cz"
)

// StopReason tells why a category scrape ended.
type StopReason string

const (
	StopFetchFailed   StopReason = "fetch_failed"
	StopNoNewListings StopReason = "no_new_listings"
	StopMaxListings   StopReason = "max_listings"
	StopNoNextPage    StopReason = "no_next_page"
	StopCancelled     StopReason = "cancelled"
)

// SessionConfig holds ScrapeSession configuration.
type SessionConfig struct {
	HostTemplate string
	PageSize     int
	PageDelay    time.Duration
	DetailDelay  time.Duration
}

// CategoryResult is what one category scrape produced. Err is the page
// failure that ended the scrape, if any; Listings are kept regardless.
type CategoryResult struct {
	Category     string
	Listings     []domain.Listing
	PagesFetched int
	Stop         StopReason
	Err          error
}

// Session drives the page loop of a category and the optional detail loop.
// Requests are sequential and spaced by the configured delays.
type Session struct {
	fetcher      PageFetcher
	extractor    *Extractor
	advancer     *Advancer
	enricher     *Enricher
	dedup        *DedupGuard
	pagePacer    *Pacer
	detailPacer  *Pacer
	hostTemplate string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewSession(cfg SessionConfig, fetcher PageFetcher, dedup *DedupGuard, m *metrics.Metrics, logger *slog.Logger) *Session {
	logger = logger.With("source", SourceID)
	return &Session{
		fetcher:      fetcher,
		extractor:    NewExtractor(logger),
		advancer:     NewAdvancer(cfg.PageSize),
		enricher:     NewEnricher(fetcher, logger),
		dedup:        dedup,
		pagePacer:    NewPacer(cfg.PageDelay),
		detailPacer:  NewPacer(cfg.DetailDelay),
		hostTemplate: cfg.HostTemplate,
		metrics:      m,
		logger:       logger,
	}
}

// ScrapeCategory walks the result pages of category until results run out,
// maxListings (0 = unlimited) is reached, or a page fails. Only an unknown
// category is returned as an error.
func (s *Session) ScrapeCategory(ctx context.Context, category string, maxListings int, q Query) (*CategoryResult, error) {
	baseURL, err := CategoryBaseURL(s.hostTemplate, category)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("category", category)
	result := &CategoryResult{Category: category}
	offset := 0

	logger.Info("starting category", "max_listings", maxListings)

	for {
		if err := s.pagePacer.Wait(ctx); err != nil {
			result.Stop, result.Err = StopCancelled, err
			break
		}

		pageURL := searchURL(baseURL, offset, q)
		page := result.PagesFetched + 1
		logger.Info("scraping page", "page", page, "offset", offset, "url", pageURL)

		doc, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			logger.Error("failed to fetch page", "page", page, "url", pageURL, "error", err)
			result.Stop, result.Err = StopFetchFailed, err
			break
		}
		result.PagesFetched++
		s.metrics.PageFetched(category)

		fresh := s.dedup.Filter(s.extractor.Extract(doc, category, baseURL))
		if len(fresh) == 0 {
			logger.Info("no more listings", "page", page)
			result.Stop = StopNoNewListings
			break
		}

		result.Listings = append(result.Listings, fresh...)
		s.metrics.ListingsScraped(category, len(fresh))
		logger.Info("extracted listings", "page", page, "count", len(fresh), "total", len(result.Listings))

		if maxListings > 0 && len(result.Listings) >= maxListings {
			result.Listings = result.Listings[:maxListings]
			logger.Info("reached max listings", "max_listings", maxListings, "pages", result.PagesFetched)
			result.Stop = StopMaxListings
			break
		}

		hasNext, next := s.advancer.Next(doc, offset)
		if !hasNext {
			logger.Info("no next page", "page", page)
			result.Stop = StopNoNextPage
			break
		}
		offset = next
	}

	logger.Info("category scraped",
		"listings", len(result.Listings),
		"pages", result.PagesFetched,
		"stop", result.Stop,
	)

	return result, nil
}

// Enrich fetches detail pages one at a time. Listings whose detail page fails
// are kept as they are. It returns the merged listings and how many were
// enriched.
func (s *Session) Enrich(ctx context.Context, listings []domain.Listing) ([]domain.Listing, int) {
	out := make([]domain.Listing, 0, len(listings))
	enriched := 0

	for i, l := range listings {
		if err := s.detailPacer.Wait(ctx); err != nil {
			s.logger.Warn("detail scraping interrupted", "done", i, "total", len(listings), "error", err)
			return append(out, listings[i:]...), enriched
		}

		merged, ok := s.enricher.Enrich(ctx, l)
		if ok {
			enriched++
		} else {
			s.metrics.EnrichmentFailed()
		}
		out = append(out, merged)

		if (i+1)%10 == 0 {
			s.logger.Info("scraped detailed data", "done", i+1, "total", len(listings))
		}
	}

	return out, enriched
}
