package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/pod-fulfillment-service/internal/adapter/cache"
	"github.com/example/pod-fulfillment-service/internal/adapter/httpapi"
	"github.com/example/pod-fulfillment-service/internal/adapter/orderapi"
	"github.com/example/pod-fulfillment-service/internal/adapter/partner"
	"github.com/example/pod-fulfillment-service/internal/adapter/repo"
	"github.com/example/pod-fulfillment-service/internal/adapter/telegram"
	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/mapping"
	"github.com/example/pod-fulfillment-service/internal/signature"
	"github.com/example/pod-fulfillment-service/internal/usecase"
)

// journalWarmLimit — сколько последних записей журнала поднимать в память при старте.
const journalWarmLimit = 1000

// App — собранные зависимости процесса. Клиенты внешних API создаются
// заново на каждый прогон или вебхук.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Mapping  *mapping.Table
	Notifier domain.Notifier
	Journal  domain.SyncJournal
	Verifier *signature.Verifier

	pool *pgxpool.Pool
}

// NewLogger — JSON-логгер в stderr с уровнем из LOG_LEVEL.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	table, err := mapping.Load(cfg.Fulfillment.MappingFile, cfg.Fulfillment.MappingJSON)
	if err != nil {
		return nil, fmt.Errorf("load sku mapping: %w", err)
	}
	logger.Info("sku mapping loaded", "entries", table.Len())

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Mapping:  table,
		Verifier: signature.NewVerifier(cfg.Security.WebhookSecret, cfg.Security.WebhookBypassSecret, logger),
	}
	if n := telegram.NewNotifier(cfg.TelegramBot, logger); n != nil {
		a.Notifier = n
	}
	if err := a.openJournal(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openJournal(ctx context.Context) error {
	mem := cache.NewMemoryJournal()
	if a.Config.Database.URL == "" {
		a.Logger.Warn("DATABASE_URL not set, sync journal kept in memory only")
		a.Journal = mem
		return nil
	}

	pool, err := pgxpool.New(ctx, a.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("init schema: %w", err)
	}
	store := repo.NewPostgresJournal(pool)
	if err := store.LoadAll(ctx, journalWarmLimit, func(rec domain.SyncRecord) error {
		mem.Set(rec)
		return nil
	}); err != nil {
		pool.Close()
		return fmt.Errorf("warm sync journal: %w", err)
	}
	a.Logger.Info("sync journal warmed", "records", mem.Len())

	a.pool = pool
	a.Journal = cache.CachedJournal{Store: store, Cache: mem}
	return nil
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// OrderSystem возвращает новый клиент со своей сессией.
func (a *App) OrderSystem() (*orderapi.Client, error) {
	return orderapi.NewClient(a.Config.OrderAPI, a.Logger)
}

func (a *App) SyncOrders() (usecase.SyncOrders, error) {
	orders, err := a.OrderSystem()
	if err != nil {
		return usecase.SyncOrders{}, err
	}
	fc := a.Config.Fulfillment
	return usecase.SyncOrders{
		Orders:   orders,
		Partner:  partner.NewClient(a.Config.Partner, a.Logger),
		Mapping:  a.Mapping,
		Notifier: a.Notifier,
		Journal:  a.Journal,
		Options: usecase.SyncOptions{
			HandlerCode:    fc.HandlerCode,
			EligibleStates: fc.EligibleStates,
			MaxOrders:      fc.MaxOrdersPerRun,
			DryRun:         fc.DryRun,
			Shipping:       usecase.ShippingOptions{Method: a.Config.Partner.ShippingMethod},
		},
		Logger: a.Logger,
	}, nil
}

func (a *App) ReconcileWebhook() (usecase.ReconcileWebhook, error) {
	orders, err := a.OrderSystem()
	if err != nil {
		return usecase.ReconcileWebhook{}, err
	}
	return usecase.ReconcileWebhook{
		Orders:   orders,
		Notifier: a.Notifier,
		Journal:  a.Journal,
		DryRun:   a.Config.Fulfillment.DryRun,
		Logger:   a.Logger,
	}, nil
}

func (a *App) InspectProduct() (usecase.InspectProduct, error) {
	orders, err := a.OrderSystem()
	if err != nil {
		return usecase.InspectProduct{}, err
	}
	return usecase.InspectProduct{Orders: orders, Mapping: a.Mapping}, nil
}

func (a *App) QueuedWebhooks() usecase.ProcessQueuedWebhook {
	return usecase.ProcessQueuedWebhook{Reconcile: a.ReconcileWebhook, Logger: a.Logger}
}

func (a *App) HTTPServer() *httpapi.Server {
	return httpapi.NewServer(
		httpapi.Factories{SyncOrders: a.SyncOrders, Reconcile: a.ReconcileWebhook},
		usecase.GetSyncRecord{Journal: a.Journal},
		a.Verifier,
		a.Config.Security.JobSecret,
		a.Logger,
	)
}
