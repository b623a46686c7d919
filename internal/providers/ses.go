package providers

import (
	"context"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awstypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

const charsetUTF8 = "UTF-8"

type SESProvider struct {
	Client *ses.Client
	Source string
	DryRun bool
	Health *SESHealthChecker
}

func NewSESProvider(cfg *config.Config) *SESProvider {
	return &SESProvider{
		Client: ses.NewFromConfig(*cfg.AWSConfig),
		Source: cfg.AppEmailSourceAddress,
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *SESProvider) Name() string {
	return "ses"
}

func (p *SESProvider) IsHealthy(ctx context.Context) bool {
	if p.Health == nil {
		return true
	}
	return p.Health.IsHealthy(ctx)
}

func (p *SESProvider) Send(ctx context.Context, msg *types.EmailMessage) error {
	if p.DryRun {
		return p.SendDryRun(ctx, msg)
	}

	_, err := p.Client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(p.Source),
		Destination: &awstypes.Destination{ToAddresses: []string{msg.To}},
		Message: &awstypes.Message{
			Subject: &awstypes.Content{Data: awssdk.String(msg.Subject), Charset: awssdk.String(charsetUTF8)},
			Body: &awstypes.Body{
				Html: &awstypes.Content{Data: awssdk.String(msg.HTML), Charset: awssdk.String(charsetUTF8)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	return nil
}

func (p *SESProvider) SendDryRun(ctx context.Context, msg *types.EmailMessage) error {
	slog.DebugContext(ctx, "dry-run ses send",
		"src_address", p.Source,
		"dst_address", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
