package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/dispatcher"
	"github.com/cruxstack/bulk-email-sender-go/internal/providers"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

var (
	dataPath string
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with test request data")
	flag.Parse()
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	os.Setenv("APP_DEBUG_MODE", "true")
	if os.Getenv("APP_EMAIL_SOURCE_ADDRESS") == "" {
		os.Setenv("APP_EMAIL_SOURCE_ADDRESS", "debug@example.org")
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfg.DebugMode = true

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-data.json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		log.Fatal("failed to load debug config", "error", err)
	}
	log.SetLevel(log.DebugLevel)

	provider, err := providers.New(cfg)
	if err != nil {
		log.Fatal("failed to init provider", "error", err)
	}

	d := dispatcher.New(provider,
		dispatcher.WithBatchSize(cfg.AppBatchSize),
		dispatcher.WithBatchDelay(cfg.AppBatchDelay),
	)

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		log.Fatal("failed to read data file", "path", cfg.DebugDataPath, "error", err)
	}

	requests := []types.BulkRequest{}
	if err := json.Unmarshal(data, &requests); err != nil {
		log.Fatal("failed to parse request file", "error", err)
	}

	for i, req := range requests {
		result, err := d.Dispatch(context.Background(), &req)
		if err != nil {
			log.Error("integration test failed", "error", err)
			os.Exit(1)
		}
		log.Info("integration iteration passed",
			"index", i,
			"total", result.TotalRecipients,
			"sent", result.Sent,
			"failed", result.Failed,
			"invalid", result.InvalidEmails,
			"unsafe", result.UnsafeEmails,
		)
	}

	log.Info("integration test passed")
}
