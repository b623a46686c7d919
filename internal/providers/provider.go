package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

type Provider interface {
	Name() string
	Send(ctx context.Context, msg *types.EmailMessage) error
}

// New builds the provider selected by configuration. When failover is
// enabled the primary is wrapped in a chain that falls through to the
// configured secondaries, with SES health-gated via the sesv2 account API.
func New(cfg *config.Config) (Provider, error) {
	primary, err := build(cfg, cfg.AppEmailProvider)
	if err != nil {
		return nil, err
	}

	if !cfg.AppEmailFailoverEnabled {
		return primary, nil
	}

	chain := []Provider{primary}
	for _, name := range cfg.AppEmailFailoverProviders {
		if name == cfg.AppEmailProvider {
			continue
		}
		p, err := build(cfg, name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}

	return NewFailoverProvider(chain), nil
}

func build(cfg *config.Config, name string) (Provider, error) {
	switch name {
	case "ses":
		p := NewSESProvider(cfg)
		if cfg.AppEmailFailoverEnabled {
			p.Health = NewSESHealthChecker(sesv2.NewFromConfig(*cfg.AWSConfig), cfg.AppEmailFailoverCacheTTL)
		}
		return p, nil
	case "sendgrid":
		return NewSendGridProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", name)
	}
}
