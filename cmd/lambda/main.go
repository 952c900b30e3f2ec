// Точка входа Lambda: события API Gateway HTTP идут в тот же роутер, что и в cmd/server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/pod-fulfillment-service/internal/adapter/lambdaapi"
	"github.com/example/pod-fulfillment-service/internal/app"
	"github.com/example/pod-fulfillment-service/internal/config"
)

func main() {
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

	lambda.Start(lambdaapi.Adapter{Handler: a.HTTPServer()}.Handle)
}
