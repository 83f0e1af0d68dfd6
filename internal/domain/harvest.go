package domain

import "time"

// CategoryStats holds statistics about one category of a harvest.
type CategoryStats struct {
	Category     string
	PagesFetched int
	Listings     int
	Enriched     int
	Persisted    bool
	Published    bool
	Err          error
}

// HarvestStats holds statistics about a whole harvest run.
type HarvestStats struct {
	RunToken   string
	RunID      int64
	Categories []CategoryStats
	Total      int
	ScrapeOnly bool
	Duration   time.Duration
}
