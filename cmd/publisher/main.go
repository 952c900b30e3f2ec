// Публикует одно событие партнёра из stdin в STAN subject, который читает сервер.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/example/pod-fulfillment-service/internal/adapter/natsstan"
	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.LoadStan()
	if !cfg.Enabled() {
		logger.Error("NATS_URL and STAN_CLUSTER_ID are required")
		os.Exit(1)
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("read stdin", "err", err)
		os.Exit(1)
	}
	var event domain.PartnerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Error("stdin is not a partner event", "err", err)
		os.Exit(1)
	}
	b, err := json.Marshal(event)
	if err != nil {
		logger.Error("marshal", "err", err)
		os.Exit(1)
	}

	pub, err := natsstan.NewPublisher(cfg)
	if err != nil {
		logger.Error("stan connect", "err", err)
		os.Exit(1)
	}
	defer pub.Close()

	if err := pub.Publish(b); err != nil {
		logger.Error("publish", "err", err)
		os.Exit(1)
	}
	logger.Info("published", "bytes", len(b), "subject", pub.Subject(), "event", event.Event, "external_id", event.Data.ExternalID)
}
