// Разовый прогон отгрузок, для cron или ручного запуска.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/pod-fulfillment-service/internal/app"
	"github.com/example/pod-fulfillment-service/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	uc, err := a.SyncOrders()
	if err != nil {
		logger.Error("build sync orders", "err", err)
		os.Exit(1)
	}
	res, err := uc.Execute(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)

	if err != nil {
		logger.Error("fulfillment run failed", "err", err)
		os.Exit(1)
	}
	if len(res.Failures) > 0 {
		os.Exit(2)
	}
}
