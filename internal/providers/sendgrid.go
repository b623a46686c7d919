package providers

import (
	"context"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/cruxstack/bulk-email-sender-go/internal/config"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

type SendGridProvider struct {
	Client sendgrid.Client
	Source string
	DryRun bool
}

func NewSendGridProvider(cfg *config.Config) *SendGridProvider {
	return &SendGridProvider{
		Client: *sendgrid.NewSendClient(cfg.SendGridEmailSendApiKey),
		Source: cfg.AppEmailSourceAddress,
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

func (p *SendGridProvider) Send(ctx context.Context, msg *types.EmailMessage) error {
	if p.DryRun {
		return p.SendDryRun(ctx, msg)
	}

	srcName, srcAddr := ParseNameAddr(p.Source)

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(srcName, srcAddr))
	m.Subject = msg.Subject
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(personalization)

	resp, err := p.Client.Send(m)
	if err != nil {
		return fmt.Errorf("sendgrid api error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	return nil
}

func (p *SendGridProvider) SendDryRun(ctx context.Context, msg *types.EmailMessage) error {
	slog.DebugContext(ctx, "dry-run sendgrid send",
		"src_address", p.Source,
		"dst_address", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// ParseNameAddr splits a source of the form `Name <addr@host>` into its
// display name and address; a bare address yields an empty name.
func ParseNameAddr(s string) (string, string) {
	addr, err := netmail.ParseAddress(s)
	if err != nil {
		return "", strings.TrimSpace(s)
	}
	return addr.Name, addr.Address
}
