package domain

import (
	"errors"
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ErrConnectivity marks failures where the database link itself is unusable.
// Storage errors that match it with errors.Is are worth retrying.
var ErrConnectivity = errors.New("database connectivity")

// Run scopes one batch of listings. ID is assigned by the registry; Token is
// supplied by whoever started the run.
type Run struct {
	ID               int64
	Token            string
	StartTime        time.Time
	EndTime          *time.Time
	Status           RunStatus
	Categories       []string
	MaxListings      int
	SearchQuery      *string
	LocationFilter   *string
	PriceMin         *int
	PriceMax         *int
	TotalListings    int
	ClassificationID *int64
}

// RunSummary is a run row joined with the number of listings stored for it.
type RunSummary struct {
	ID            int64      `db:"id"`
	Token         string     `db:"run_token"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	Status        RunStatus  `db:"status"`
	TotalListings int        `db:"total_listings"`
	StoredCount   int        `db:"stored_count"`
}
