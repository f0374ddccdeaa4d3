package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/police_alert_watcher/internal/config"
	"github.com/shenikar/police_alert_watcher/internal/discord"
	"github.com/shenikar/police_alert_watcher/internal/mapbox"
	"github.com/shenikar/police_alert_watcher/internal/repository"
	"github.com/shenikar/police_alert_watcher/internal/service"
	"github.com/shenikar/police_alert_watcher/internal/waze"
	"github.com/shenikar/police_alert_watcher/pkg/logger"
	"github.com/shenikar/police_alert_watcher/pkg/postgres"
	redisclient "github.com/shenikar/police_alert_watcher/pkg/redis"
	"github.com/sirupsen/logrus"
)

func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newAlertStore builds the configured state backend.
func newAlertStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.AlertStore, func(), error) {
	switch cfg.StateBackend {
	case config.StateBackendFile:
		return repository.NewFileAlertStore(cfg.StateFile), func() {}, nil

	case config.StateBackendRedis:
		client, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("Successfully connected to Redis")
		return repository.NewRedisAlertStore(client), func() { client.Close() }, nil

	case config.StateBackendPostgres:
		if err := runMigrations(cfg, log); err != nil {
			return nil, nil, err
		}
		dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info("Successfully connected to PostgreSQL")
		return repository.NewPostgresAlertStore(dbpool), func() { dbpool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newAlertStore(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to set up state store: %v", err)
	}
	defer closeStore()

	fetcher := waze.NewClient(waze.BoundingBox{
		Top:    cfg.BBoxTop,
		Bottom: cfg.BBoxBottom,
		Left:   cfg.BBoxLeft,
		Right:  cfg.BBoxRight,
	}, cfg.HTTPTimeout, log)

	images := mapbox.NewClient(cfg.MapboxToken, cfg.ImageDir, cfg.HTTPTimeout, log)
	notifier := discord.NewNotifier(cfg.DiscordWebhookURL, cfg.HTTPTimeout, log)

	watcher := service.NewWatcher(fetcher, store, images, notifier, log, cfg.PollInterval)

	go watcher.Run(ctx)

	// The shutdown hook drops the snapshot cache and exits without
	// draining an in-flight cycle.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, cleaning up snapshot cache...")

	cancel()
	images.CleanupAll()

	log.Info("Watcher stopped")
}
