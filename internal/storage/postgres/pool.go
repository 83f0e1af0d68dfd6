package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"listing_harvester/internal/metrics"
)

const probeQuery = "SELECT 1"

type PoolConfig struct {
	DriverName      string
	DSN             string
	MaxConns        int
	AcquireAttempts int
	AcquirePause    time.Duration
}

// Pool hands out probed connections and can be rebuilt from its
// configuration with Refresh.
type Pool struct {
	mu      sync.RWMutex
	db      *sqlx.DB
	cfg     PoolConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPool opens the pool and verifies the server is reachable.
func NewPool(ctx context.Context, cfg PoolConfig, m *metrics.Metrics, logger *slog.Logger) (*Pool, error) {
	if cfg.DriverName == "" {
		cfg.DriverName = "postgres"
	}
	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.AcquireAttempts < 1 {
		cfg.AcquireAttempts = 1
	}

	p := &Pool{
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "db_pool"),
	}

	db, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.db = db

	p.logger.Info("database pool initialized", "max_conns", cfg.MaxConns)
	return p, nil
}

func (p *Pool) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open(p.cfg.DriverName, p.cfg.DSN)
	if err != nil {
		return nil, classify("open pool", err)
	}
	db.SetMaxOpenConns(p.cfg.MaxConns)
	db.SetMaxIdleConns(p.cfg.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("ping database", err)
	}
	return db, nil
}

func (p *Pool) current() (*sqlx.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, ErrPoolClosed
	}
	return p.db, nil
}

// Acquire returns a connection that answered a probe query. Connections
// that fail the probe are discarded. Once the attempts are used up the last
// failure is returned as a retryable *OpError.
func (p *Pool) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.AcquireAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.AcquirePause):
			}
		}

		db, err := p.current()
		if err != nil {
			return nil, err
		}

		conn, err := db.Connx(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			p.logger.Warn("failed to get connection", "attempt", attempt, "error", err)
			continue
		}

		if _, err := conn.ExecContext(ctx, probeQuery); err != nil {
			discard(conn)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			p.logger.Warn("connection failed liveness probe", "attempt", attempt, "error", err)
			continue
		}

		return conn, nil
	}

	return nil, &OpError{
		Op:    fmt.Sprintf("acquire connection after %d attempts", p.cfg.AcquireAttempts),
		Class: ClassRetryable,
		Err:   lastErr,
	}
}

// Release returns conn to the pool, or closes the underlying connection if
// that fails.
func (p *Pool) Release(conn *sqlx.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.logger.Warn("failed to release connection", "error", err)
		discard(conn)
	}
}

// discard makes database/sql close the driver connection instead of
// putting it back into the idle set.
func discard(conn *sqlx.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

// WithConn runs fn on an acquired connection and releases it afterwards.
func (p *Pool) WithConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	return fn(conn)
}

// Refresh opens a fresh pool from the configuration, swaps it in and
// closes the old one. The old pool stays in place if the new one cannot be
// opened.
func (p *Pool) Refresh(ctx context.Context) error {
	db, err := p.open(ctx)
	if err != nil {
		p.logger.Error("failed to refresh pool", "error", err)
		return fmt.Errorf("refresh pool: %w", err)
	}

	p.mu.Lock()
	old := p.db
	p.db = db
	p.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			p.logger.Warn("failed to close old pool", "error", err)
		}
	}

	p.metrics.PoolRefreshed()
	p.logger.Info("database pool refreshed")
	return nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	db := p.db
	p.db = nil
	p.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}
