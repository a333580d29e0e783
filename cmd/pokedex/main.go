package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"pokedex/internal/catalog"
	"pokedex/internal/config"
	"pokedex/internal/detail"
	"pokedex/internal/domain"
	"pokedex/internal/favorites"
	"pokedex/internal/publisher"
	"pokedex/internal/scheduler"
	"pokedex/internal/search"
	"pokedex/internal/source"
	"pokedex/internal/source/pokeapi"
	"pokedex/internal/storage/bolt"
	"pokedex/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	query := flag.String("search", "", "filter the first page by this query at startup")
	showID := flag.Int64("detail", 0, "fetch this creature's detail at startup")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *query, *showID, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("pokedex stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, query string, showID int64, logger *slog.Logger) error {
	client := pokeapi.New(pokeapi.Config{
		BaseURL:       cfg.API.BaseURL,
		SpriteBaseURL: cfg.API.SpriteBaseURL,
		PageSize:      cfg.API.PageSize,
		Timeout:       cfg.API.Timeout,
	}, logger)

	fetcher := source.NewRetrying(client, client, source.RetryPolicy{
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	backing, closeBacking, err := openBacking(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBacking()

	var notifier favorites.Notifier
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		notifier = rabbitMQ
	}

	store := favorites.NewStore(backing, notifier, logger)

	list := catalog.NewList(fetcher, logger)
	if err := list.Load(ctx); err != nil {
		logger.Warn("initial page load failed", "error", err)
	}

	snap := list.Snapshot()
	logger.Info("catalog loaded",
		"source", client.Name(),
		"entries", len(snap.Entries),
		"total", snap.Total,
		"has_more", snap.HasMore,
	)

	if query != "" {
		debouncer := search.NewDebouncer(cfg.Search.Debounce, list.Entries,
			func(q string, matches []domain.ListEntry) {
				logger.Info("search results", "query", q, "matches", len(matches))
			},
		)
		debouncer.SetQuery(query)
		debouncer.Flush()
		debouncer.Stop()
	}

	if showID > 0 {
		slot := detail.NewSlot(fetcher, logger)
		if entry, err := slot.Show(ctx, showID); err == nil {
			logger.Info("detail loaded",
				"id", entry.ID,
				"name", entry.Name,
				"types", entry.Types,
				"base_stat_total", entry.BaseStatTotal(),
			)
		}
	}

	logger.Info("starting favorites refresher",
		"backend", cfg.Favorites.Backend,
		"interval", cfg.Favorites.RefreshInterval,
		"publishing", cfg.RabbitMQ.Enabled(),
	)

	sched := scheduler.NewScheduler(store, cfg.Favorites.RefreshInterval, logger)
	return sched.Start(ctx)
}

// openBacking selects the favorites backing named by the config.
func openBacking(ctx context.Context, cfg *config.Config, logger *slog.Logger) (favorites.Backing, func(), error) {
	switch cfg.Favorites.Backend {
	case config.BackendRemote:
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("connected to database")
		return postgres.NewFavoriteStore(db), func() { db.Close() }, nil

	default:
		db, err := bolt.Open(cfg.Favorites.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		store := bolt.NewFavoriteStore(db, logger)
		if err := store.Load(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("opened local favorites", "path", cfg.Favorites.LocalPath)
		return store, func() { db.Close() }, nil
	}
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
