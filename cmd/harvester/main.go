package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"listing_harvester/internal/config"
	"listing_harvester/internal/metrics"
	"listing_harvester/internal/publisher"
	"listing_harvester/internal/scheduler"
	"listing_harvester/internal/service"
	"listing_harvester/internal/source/bazos"
	"listing_harvester/internal/storage/postgres"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvest classified listings from bazos.cz into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(newRunCmd(), newRunsCmd(), newListingsCmd())

	if err := root.Execute(); err != nil {
		setupLogger("info").Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one harvest, or keep harvesting when schedule.interval is set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runHarvester(ctx, cfg, logger)
		},
	}
}

func runHarvester(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	classificationID, err := cfg.Run.Classification()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	var storage *service.Storage
	pool, err := openPool(ctx, cfg, m, logger)
	if err != nil {
		logger.Error("failed to initialize database, continuing in scrape-only mode", "error", err)
	} else {
		defer pool.Close()
		retrier := newRetrier(cfg, pool, m, logger)
		storage = &service.Storage{
			Runs:     postgres.NewRunRegistry(pool, retrier, logger),
			Listings: postgres.NewListingStore(pool, retrier, cfg.Run.SourceName, logger),
			Pool:     pool,
		}
	}

	var sink service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Warn("failed to connect to rabbitmq, batches will not be published", "error", err)
		} else {
			defer rabbitMQ.Close()
			sink = rabbitMQ
		}
	}

	session := bazos.NewSession(bazos.SessionConfig{
		HostTemplate: cfg.Scrape.HostTemplate,
		PageSize:     cfg.Scrape.PageSize,
		PageDelay:    cfg.Scrape.PageDelay,
		DetailDelay:  cfg.Scrape.DetailDelay,
	}, bazos.NewHTTPFetcher(cfg.Scrape.Timeout, cfg.Scrape.UserAgent), bazos.NewDedupGuard(), m, logger)

	harvestService := service.NewHarvestService(session, storage, sink, logger, cfg.Scrape, classificationID)
	sched := scheduler.NewScheduler(harvestService, cfg.Schedule.Interval, cfg.Run.Token, logger)

	logger.Info("starting listing harvester",
		"source", bazos.SourceName,
		"categories", cfg.Scrape.Categories,
		"interval", cfg.Schedule.Interval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("harvest: %w", err)
	}
	return nil
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs with their stored listing counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := openPool(cmd.Context(), cfg, nil, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			registry := postgres.NewRunRegistry(pool, newRetrier(cfg, pool, nil, logger), logger)
			runs, err := registry.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTOKEN\tSTATUS\tSTARTED\tTOTAL\tSTORED")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.Token, r.Status, r.StartTime.Format(time.RFC3339), r.TotalListings, r.StoredCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	return cmd
}

func newListingsCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Print the listings stored for a run as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := openPool(cmd.Context(), cfg, nil, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := postgres.NewListingStore(pool, newRetrier(cfg, pool, nil, logger), cfg.Run.SourceName, logger)
			listings, err := store.ListByRunToken(cmd.Context(), token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(listings)
		},
	}
	cmd.Flags().StringVar(&token, "run", "", "run token")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func openPool(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*postgres.Pool, error) {
	return postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.Database.DSN(cfg.Run.SourceName),
		MaxConns:        cfg.Database.PoolSize,
		AcquireAttempts: cfg.Database.AcquireAttempts,
		AcquirePause:    cfg.Database.AcquirePause,
	}, m, logger)
}

func newRetrier(cfg *config.Config, pool *postgres.Pool, m *metrics.Metrics, logger *slog.Logger) *postgres.Retrier {
	return postgres.NewRetrier(postgres.RetryConfig{
		MaxAttempts: cfg.Database.Retry.MaxAttempts,
		BaseDelay:   cfg.Database.Retry.BaseDelay,
	}, pool, m, logger)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
