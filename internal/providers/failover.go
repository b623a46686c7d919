package providers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

// FailoverProvider wraps multiple providers and attempts to send each
// message through them in order, failing over to the next provider when one
// is unhealthy or fails to send.
type FailoverProvider struct {
	providers []Provider
}

// NewFailoverProvider creates a new failover provider with the given providers.
// Providers are tried in order - the first healthy provider that successfully
// sends the message wins.
func NewFailoverProvider(providers []Provider) *FailoverProvider {
	return &FailoverProvider{
		providers: providers,
	}
}

func (f *FailoverProvider) Name() string {
	return "failover"
}

// Send attempts delivery through each provider in order, skipping providers
// that report unhealthy via HealthChecker. Unlike a fire-and-forget setup,
// the last error is returned so the dispatcher can record the recipient as
// failed.
func (f *FailoverProvider) Send(ctx context.Context, msg *types.EmailMessage) error {
	var lastErr error

	for _, p := range f.providers {
		if hc, ok := p.(HealthChecker); ok {
			if !hc.IsHealthy(ctx) {
				slog.WarnContext(ctx, "provider unhealthy, skipping",
					"provider", p.Name(),
				)
				continue
			}
		}

		err := p.Send(ctx, msg)
		if err == nil {
			return nil
		}

		slog.WarnContext(ctx, "provider send failed, trying next",
			"provider", p.Name(),
			"error", err,
		)
		lastErr = err
	}

	if lastErr != nil {
		return lastErr
	}
	return errors.New("no providers available to send email")
}

// Providers returns the list of providers in this failover chain.
func (f *FailoverProvider) Providers() []Provider {
	return f.providers
}
