package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cruxstack/bulk-email-sender-go/internal/api"
	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/dispatcher"
	"github.com/cruxstack/bulk-email-sender-go/internal/policy"
	"github.com/cruxstack/bulk-email-sender-go/internal/providers"
	"github.com/cruxstack/bulk-email-sender-go/internal/validator"
)

func main() {
	logLevel, _ := log.ParseLevel(os.Getenv("APP_LOG_LEVEL"))
	log.SetLevel(logLevel)

	cfg, err := config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	if cfg.AppAPIAuthToken == "" {
		log.Fatal("APP_API_AUTH_TOKEN is required to serve the HTTP API")
	}

	provider, err := providers.New(cfg)
	if err != nil {
		log.Fatal("failed to init provider", "error", err)
	}

	d := dispatcher.New(provider,
		dispatcher.WithBatchSize(cfg.AppBatchSize),
		dispatcher.WithBatchDelay(cfg.AppBatchDelay),
	)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.AppLogLevel}))
	server := api.NewServer(cfg, d, logger)

	if cfg.AppSendPolicyPath != "" {
		gate, err := policy.Load(context.Background(), cfg.AppSendPolicyPath)
		if err != nil {
			log.Fatal("failed to load send policy", "error", err)
		}
		server.Gate = gate
	}

	if cfg.AppEmailVerificationProvider == "sendgrid" {
		server.Verifier = validator.NewSendGridVerifier(
			cfg.SendGridApiHost,
			cfg.SendGridEmailVerificationApiKey,
			cfg.AppEmailVerificationWhitelist,
		)
	}

	addr := ":" + port()
	log.Info("listening", "addr", addr, "provider", provider.Name())
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func port() string {
	if p := os.Getenv("APP_PORT"); p != "" {
		return p
	}
	return "8080"
}
