package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/cruxstack/bulk-email-sender-go/internal/secrets"
)

type Config struct {
	AWSConfig             *aws.Config
	AppLogLevel           slog.Level
	AppEmailProvider      string
	AppEmailSourceAddress string
	AppSendEnabled        bool
	AppAPIAuthToken       string
	AppSendPolicyPath     string
	AppKmsKeyId           string
	DebugMode             bool
	DebugDataPath         string

	// Batch pacing. Defaults match the relay limits the service was tuned
	// against; override only with a reason.
	AppBatchSize  int
	AppBatchDelay time.Duration

	// Verification
	AppEmailVerificationProvider  string
	AppEmailVerificationWhitelist []string

	// SendGrid
	SendGridApiHost                 string
	SendGridEmailSendApiKey         string
	SendGridEmailVerificationApiKey string

	// Failover configuration
	AppEmailFailoverEnabled   bool
	AppEmailFailoverProviders []string
	AppEmailFailoverCacheTTL  time.Duration
}

func New() (*Config, error) {
	awscfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	cfg := Config{
		AWSConfig:                       &awscfg,
		AppLogLevel:                     slog.LevelInfo,
		AppEmailProvider:                os.Getenv("APP_EMAIL_PROVIDER"),
		AppEmailSourceAddress:           os.Getenv("APP_EMAIL_SOURCE_ADDRESS"),
		AppSendEnabled:                  true,
		AppAPIAuthToken:                 os.Getenv("APP_API_AUTH_TOKEN"),
		AppSendPolicyPath:               os.Getenv("APP_SEND_POLICY_PATH"),
		AppKmsKeyId:                     os.Getenv("APP_KMS_KEY_ID"),
		DebugMode:                       os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:                   os.Getenv("APP_DEBUG_DATA_PATH"),
		AppBatchSize:                    10,
		AppBatchDelay:                   2 * time.Second,
		AppEmailVerificationProvider:    os.Getenv("APP_EMAIL_VERIFICATION_PROVIDER"),
		AppEmailVerificationWhitelist:   []string{},
		SendGridApiHost:                 os.Getenv("APP_SENDGRID_API_HOST"),
		SendGridEmailSendApiKey:         os.Getenv("APP_SENDGRID_EMAIL_SEND_API_KEY"),
		SendGridEmailVerificationApiKey: os.Getenv("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY"),
		AppEmailFailoverEnabled:         os.Getenv("APP_EMAIL_FAILOVER_ENABLED") == "true",
		AppEmailFailoverProviders:       []string{},
		AppEmailFailoverCacheTTL:        30 * time.Second,
	}

	// disable send if debug mode by default
	if cfg.DebugMode && os.Getenv("APP_SEND_ENABLED") != "true" {
		cfg.AppSendEnabled = false
	}

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		}
	}

	if cfg.AppEmailProvider == "" || (cfg.AppEmailProvider != "ses" && cfg.AppEmailProvider != "sendgrid") {
		slog.Warn("unknown email provider, defaulting to ses", "provider", cfg.AppEmailProvider)
		cfg.AppEmailProvider = "ses"
	}

	if sizeStr := os.Getenv("APP_BATCH_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			cfg.AppBatchSize = size
		} else {
			slog.Warn("invalid APP_BATCH_SIZE, using default", "value", sizeStr, "default", 10)
		}
	}

	if delayStr := os.Getenv("APP_BATCH_DELAY"); delayStr != "" {
		if delay, err := time.ParseDuration(delayStr); err == nil && delay >= 0 {
			cfg.AppBatchDelay = delay
		} else {
			slog.Warn("invalid APP_BATCH_DELAY, using default", "value", delayStr, "default", "2s")
		}
	}

	if whitelistStr := strings.TrimSpace(os.Getenv("APP_EMAIL_VERIFICATION_WHITELIST")); whitelistStr != "" {
		whitelist := strings.Split(whitelistStr, ",")
		for i, x := range whitelist {
			whitelist[i] = strings.TrimSpace(x)
		}
		cfg.AppEmailVerificationWhitelist = whitelist
	}

	if cfg.SendGridApiHost == "" {
		cfg.SendGridApiHost = "https://api.sendgrid.com"
	}

	if failoverProvidersStr := strings.TrimSpace(os.Getenv("APP_EMAIL_FAILOVER_PROVIDERS")); failoverProvidersStr != "" {
		providers := strings.Split(failoverProvidersStr, ",")
		for i, p := range providers {
			providers[i] = strings.TrimSpace(p)
		}
		cfg.AppEmailFailoverProviders = providers
	}

	if ttlStr := os.Getenv("APP_EMAIL_FAILOVER_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil {
			cfg.AppEmailFailoverCacheTTL = ttl
		} else {
			slog.Warn("invalid APP_EMAIL_FAILOVER_CACHE_TTL, using default", "value", ttlStr, "default", "30s")
		}
	}

	// The SendGrid key may be stored KMS-encrypted; the plaintext variable
	// wins when both are set.
	if encrypted := os.Getenv("APP_SENDGRID_EMAIL_SEND_API_KEY_ENCRYPTED"); encrypted != "" && cfg.SendGridEmailSendApiKey == "" {
		if cfg.AppKmsKeyId == "" {
			return nil, errors.New("APP_KMS_KEY_ID is required to decrypt APP_SENDGRID_EMAIL_SEND_API_KEY_ENCRYPTED")
		}
		key, err := secrets.Decrypt(context.Background(), cfg.AppKmsKeyId, encrypted)
		if err != nil {
			return nil, err
		}
		cfg.SendGridEmailSendApiKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and valid
func (c *Config) Validate() error {
	if c.AppEmailSourceAddress == "" {
		return errors.New("APP_EMAIL_SOURCE_ADDRESS is required")
	}

	if c.AppEmailProvider == "sendgrid" && c.SendGridEmailSendApiKey == "" {
		return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when using sendgrid provider")
	}

	if c.AppEmailVerificationProvider == "sendgrid" && c.SendGridEmailVerificationApiKey == "" {
		return errors.New("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY is required when using sendgrid email verification")
	}

	if c.AppEmailFailoverEnabled {
		if len(c.AppEmailFailoverProviders) == 0 {
			return errors.New("APP_EMAIL_FAILOVER_PROVIDERS is required when failover is enabled")
		}

		validProviders := map[string]bool{"ses": true, "sendgrid": true}
		for _, p := range c.AppEmailFailoverProviders {
			if !validProviders[p] {
				return errors.New("invalid failover provider: " + p + " (must be 'ses' or 'sendgrid')")
			}
		}

		allProviders := append([]string{c.AppEmailProvider}, c.AppEmailFailoverProviders...)
		for _, p := range allProviders {
			if p == "sendgrid" && c.SendGridEmailSendApiKey == "" {
				return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when sendgrid is in failover chain")
			}
		}
	}

	return nil
}
