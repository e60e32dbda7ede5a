package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"NewsDispatch/internal/classify"
	"NewsDispatch/internal/config"
	"NewsDispatch/internal/dispatch"
	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/infrastructure/discord"
	"NewsDispatch/internal/infrastructure/newsapi"
	"NewsDispatch/internal/infrastructure/scheduler"
	"NewsDispatch/internal/infrastructure/storage"
	"NewsDispatch/internal/logging"
	"NewsDispatch/internal/ports"
	"NewsDispatch/internal/source"
	"NewsDispatch/internal/watermark"
)

const stopTimeout = 30 * time.Second

// Application wires configs to the dispatch pipeline and owns the process
// lifecycle.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	coordinator *dispatch.Coordinator
	scheduler   ports.Scheduler
	db          *sql.DB
}

// New builds a runnable application instance. Missing credentials are the
// only fatal configuration errors; everything else degrades and logs.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if cfg.NewsAPI.APIKey == "" {
		return nil, fmt.Errorf("news api key is not configured (set NEWSAPI_KEY)")
	}
	if cfg.Discord.BotToken == "" {
		return nil, fmt.Errorf("discord bot token is not configured (set DISCORD_BOT_TOKEN)")
	}

	bindings, err := config.LoadBindings(cfg.Pipeline.BindingsPath)
	if err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}

	categories := buildCategories(cfg.Pipeline.Categories, bindings, baseLogger)

	store := watermark.Open(
		cfg.Pipeline.WatermarkPath,
		categoryNames(categories),
		baseLogger.With("component", "watermark"),
	)

	registry := source.NewRegistry()
	registry.Register(newsapi.NewClient(cfg.NewsAPI, nil))
	src := source.NewRegistrySource(registry, cfg.Pipeline.Provider, baseLogger.With("component", "source"))

	var db *sql.DB
	var deliveries ports.DeliveryLog
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		deliveries = storage.NewPostgresRepository(db)
	}

	coordinator := dispatch.NewCoordinator(dispatch.Deps{
		Source:     src,
		Transport:  discord.NewTransport(cfg.Discord.BotToken, cfg.Discord.APIBase),
		Watermarks: store,
		Deliveries: deliveries,
		Filter:     classify.NewFilter(cfg.Pipeline.Vocabulary),
		Classifier: classify.NewClassifier(categories),
		Logger:     baseLogger.With("component", "dispatch"),
	})

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		coordinator: coordinator,
		scheduler:   scheduler.NewCronScheduler(cfg.Scheduler.CronSpec, baseLogger.With("component", "scheduler")),
		db:          db,
	}, nil
}

// Run executes the first cycle immediately, then hands control to the
// scheduler until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.runCycle(ctx)

	if err := a.scheduler.Start(ctx, func(time.Time) { a.runCycle(ctx) }); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}

	if a.db != nil {
		_ = a.db.Close()
	}

	return nil
}

// runCycle logs instead of propagating: no per-cycle failure may terminate
// the long-running process.
func (a *Application) runCycle(ctx context.Context) {
	if _, err := a.coordinator.RunCycle(ctx); err != nil {
		a.logger.Error("dispatch cycle failed", "error", err)
	}
}

func buildCategories(cfgCats []config.CategoryConfig, bindings config.Bindings, logger *slog.Logger) []domain.Category {
	categories := make([]domain.Category, 0, len(cfgCats))
	for _, cat := range cfgCats {
		destination := bindings[cat.Name]
		if destination == "" {
			logger.Warn("category has no destination binding, deliveries will be skipped", "category", cat.Name)
		}
		categories = append(categories, domain.Category{
			Name:        cat.Name,
			Keywords:    cat.Keywords,
			Priority:    cat.Priority,
			Destination: destination,
			CatchAll:    cat.CatchAll,
		})
	}
	return categories
}

func categoryNames(categories []domain.Category) []string {
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}
	return names
}
