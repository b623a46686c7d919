package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/charmbracelet/log"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/dispatcher"
	"github.com/cruxstack/bulk-email-sender-go/internal/policy"
	"github.com/cruxstack/bulk-email-sender-go/internal/providers"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

var (
	d    *dispatcher.Dispatcher
	gate *policy.Gate
)

func Handler(ctx context.Context, req types.BulkRequest) (*types.BulkResult, error) {
	if os.Getenv("DEBUG_MODE") == "true" {
		reqJson, err := json.Marshal(req)
		if err != nil {
			log.Error("issue marshalling request", "error", err)
		}
		log.Print(string(reqJson))
	}

	if gate != nil {
		decision, err := gate.Decide(ctx, policy.InputFrom(&req))
		if err != nil {
			log.Error("failed to evaluate send policy", "error", err)
			return nil, err
		}
		if !decision.Allowed() {
			log.Warn("send denied by policy", "reason", decision.Reason)
			return nil, errors.New("send denied by policy")
		}
	}

	result, err := d.Dispatch(ctx, &req)
	if err != nil {
		log.Error("failed to dispatch bulk email", "error", err)
		return nil, err
	}

	return result, nil
}

func main() {
	logLevel, _ := log.ParseLevel(os.Getenv("APP_LOG_LEVEL"))
	log.SetLevel(logLevel)

	cfg, err := config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	provider, err := providers.New(cfg)
	if err != nil {
		log.Fatal("failed to init provider", "error", err)
	}

	d = dispatcher.New(provider,
		dispatcher.WithBatchSize(cfg.AppBatchSize),
		dispatcher.WithBatchDelay(cfg.AppBatchDelay),
	)

	if cfg.AppSendPolicyPath != "" {
		gate, err = policy.Load(context.Background(), cfg.AppSendPolicyPath)
		if err != nil {
			log.Fatal("failed to load send policy", "error", err)
		}
	}

	lambda.Start(Handler)
}
