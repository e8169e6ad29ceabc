// Package main is the AWS Lambda entrypoint. One binary serves every route;
// API Gateway proxy events are dispatched by path and method.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/vocali/transcription-api/internal/app"
	"github.com/vocali/transcription-api/internal/config"
	"github.com/vocali/transcription-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lambda.Start(a.Router.ServeLambda)
}
