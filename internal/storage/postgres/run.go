package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"listing_harvester/internal/domain"
)

// RunRegistry creates, reuses and finalizes run rows keyed by run token.
type RunRegistry struct {
	pool    *Pool
	retrier *Retrier
	logger  *slog.Logger
}

func NewRunRegistry(pool *Pool, retrier *Retrier, logger *slog.Logger) *RunRegistry {
	return &RunRegistry{
		pool:    pool,
		retrier: retrier,
		logger:  logger.With("component", "run_registry"),
	}
}

// CreateOrReuse claims the row for run.Token, inserting it if no one has
// created it yet. A pre-created row keeps its id, and its classification id
// is adopted when run has none. run.ID and run.ClassificationID are updated
// in place.
func (r *RunRegistry) CreateOrReuse(ctx context.Context, run *domain.Run) (int64, error) {
	query := `
		INSERT INTO runs (
			run_token, start_time, categories, max_listings, search_query,
			location_filter, price_min, price_max, status, total_listings, classification_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10
		)
		ON CONFLICT (run_token) DO UPDATE SET
			categories = EXCLUDED.categories,
			max_listings = EXCLUDED.max_listings,
			search_query = EXCLUDED.search_query,
			location_filter = EXCLUDED.location_filter,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			status = EXCLUDED.status,
			classification_id = COALESCE(EXCLUDED.classification_id, runs.classification_id)
		RETURNING id, classification_id, (xmax = 0) AS inserted`

	var row struct {
		ID               int64         `db:"id"`
		ClassificationID sql.NullInt64 `db:"classification_id"`
		Inserted         bool          `db:"inserted"`
	}

	err := r.retrier.Do(ctx, "create run", func(ctx context.Context) error {
		return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
			return conn.GetContext(ctx, &row, query,
				run.Token,
				run.StartTime,
				pq.Array(run.Categories),
				run.MaxListings,
				run.SearchQuery,
				run.LocationFilter,
				run.PriceMin,
				run.PriceMax,
				domain.RunStatusRunning,
				run.ClassificationID,
			)
		})
	})
	if err != nil {
		return 0, fmt.Errorf("create run %q: %w", run.Token, err)
	}

	run.ID = row.ID
	run.Status = domain.RunStatusRunning
	if run.ClassificationID == nil && row.ClassificationID.Valid {
		id := row.ClassificationID.Int64
		run.ClassificationID = &id
	}

	if row.Inserted {
		r.logger.Info("created run", "run_id", row.ID, "run_token", run.Token)
	} else {
		r.logger.Info("reusing existing run", "run_id", row.ID, "run_token", run.Token)
	}

	return row.ID, nil
}

// Finalize records the outcome of a run and stamps its end time.
func (r *RunRegistry) Finalize(ctx context.Context, runID int64, status domain.RunStatus, total int) error {
	query := `
		UPDATE runs
		SET status = $1, total_listings = $2, end_time = NOW()
		WHERE id = $3`

	err := r.retrier.Do(ctx, "finalize run", func(ctx context.Context) error {
		return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
			res, err := conn.ExecContext(ctx, query, status, total, runID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrRunNotFound
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("finalize run %d: %w", runID, err)
	}

	r.logger.Info("run finalized", "run_id", runID, "status", status, "total_listings", total)
	return nil
}

// GetByToken looks a run up by its token.
func (r *RunRegistry) GetByToken(ctx context.Context, token string) (*domain.RunSummary, error) {
	query := `
		SELECT r.id, r.run_token, r.start_time, r.end_time, r.status, r.total_listings,
			COUNT(l.id) AS stored_count
		FROM runs r
		LEFT JOIN listings l ON l.run_id = r.id
		WHERE r.run_token = $1
		GROUP BY r.id`

	var summary domain.RunSummary
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &summary, query, token)
	})
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %q: %w", token, err)
	}
	return &summary, nil
}

// ListRecent returns the latest runs, newest first.
func (r *RunRegistry) ListRecent(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT r.id, r.run_token, r.start_time, r.end_time, r.status, r.total_listings,
			COUNT(l.id) AS stored_count
		FROM runs r
		LEFT JOIN listings l ON l.run_id = r.id
		GROUP BY r.id
		ORDER BY r.start_time DESC, r.id DESC
		LIMIT $1`

	var summaries []domain.RunSummary
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &summaries, query, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return summaries, nil
}
