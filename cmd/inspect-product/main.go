// Печатает товар Order System и маппинг партнёра для каждого варианта.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/example/pod-fulfillment-service/internal/app"
	"github.com/example/pod-fulfillment-service/internal/config"
)

func main() {
	id := flag.String("id", "", "product id")
	slug := flag.String("slug", "", "product slug")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("init", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	uc, err := a.InspectProduct()
	if err != nil {
		logger.Error("build inspect product", "err", err)
		os.Exit(1)
	}
	res, err := uc.Execute(context.Background(), *id, *slug)
	if err != nil {
		logger.Error("inspect product", "err", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if res.Missing > 0 {
		os.Exit(2)
	}
}
