// Package dispatcher sends personalized bulk email in paced batches. Within
// a batch every recipient is sent concurrently; between batches the
// dispatcher pauses for a fixed delay so a rate-limited relay is never
// flooded.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cruxstack/bulk-email-sender-go/internal/types"
	"github.com/cruxstack/bulk-email-sender-go/internal/validator"
)

const (
	// DefaultBatchSize and DefaultBatchDelay were tuned against the SMTP
	// relay limits of the original deployment. Overridable via options, but
	// the defaults are load-bearing for existing installs.
	DefaultBatchSize  = 10
	DefaultBatchDelay = 2000 * time.Millisecond
)

var (
	// ErrMissingFields signals an unusable request rejected before any
	// validation or network work.
	ErrMissingFields = errors.New("missing required fields")

	// ErrNoValidRecipients signals that every recipient failed validation
	// or safety checks; nothing was sent.
	ErrNoValidRecipients = errors.New("no valid email addresses found")
)

// Sender delivers a single rendered message. Implementations own their
// connection lifecycle and must be safe for concurrent use.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *types.EmailMessage) error
}

// SleepFunc pauses between batches. Injected so tests can observe pacing
// without wall-clock waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatcher validates recipient lists and drives batched sends through a
// Sender. It holds no mutable state; concurrent Dispatch calls do not
// interfere.
type Dispatcher struct {
	sender     Sender
	batchSize  int
	batchDelay time.Duration
	sleep      SleepFunc
}

type Option func(*Dispatcher)

func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithBatchDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		if delay >= 0 {
			d.batchDelay = delay
		}
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(d *Dispatcher) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:     sender,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		sleep:      defaultSleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Personalize renders the template for one recipient by replacing every
// literal {name} and {email} token. Any other braced token is left as-is.
func Personalize(template string, r types.EmailRecipient) string {
	return strings.NewReplacer("{name}", r.Name, "{email}", r.Email).Replace(template)
}

// Dispatch validates all recipients, partitions them into invalid, unsafe
// and safe, and sends to the safe subset in batches. A dry-run request
// reports the partition and a rendered preview without touching the Sender.
// Individual send failures are recorded per recipient and never abort the
// run; only pre-flight rejections return an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.BulkRequest) (*types.BulkResult, error) {
	if req == nil || len(req.Recipients) == 0 || req.Subject == "" || req.HTMLContent == "" {
		return nil, ErrMissingFields
	}

	emails := make([]string, len(req.Recipients))
	for i, r := range req.Recipients {
		emails[i] = r.Email
	}
	validations := validator.ValidateBatch(emails)

	var invalid, unsafe []types.ValidationResult
	var safe []types.EmailRecipient
	for i, v := range validations {
		switch {
		case !v.IsValid:
			invalid = append(invalid, v)
		case !v.IsSafe:
			unsafe = append(unsafe, v)
		default:
			safe = append(safe, req.Recipients[i])
		}
	}

	result := &types.BulkResult{
		Success:           true,
		TotalRecipients:   len(req.Recipients),
		ValidRecipients:   len(safe),
		InvalidEmails:     len(invalid),
		UnsafeEmails:      len(unsafe),
		InvalidEmailsList: invalid,
		UnsafeEmailsList:  unsafe,
	}

	if req.DryRun {
		result.Preview = preview(req, safe)
		return result, nil
	}

	if len(safe) == 0 {
		return nil, ErrNoValidRecipients
	}

	slog.InfoContext(ctx, "starting bulk dispatch",
		"total", len(req.Recipients),
		"safe", len(safe),
		"batch_size", d.batchSize,
		"sender", d.sender.Name(),
	)

	for start := 0; start < len(safe); start += d.batchSize {
		end := min(start+d.batchSize, len(safe))
		batch := safe[start:end]

		outcomes := make([]types.SendResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, rcpt := range batch {
			g.Go(func() error {
				outcomes[i] = d.sendOne(gctx, req, rcpt)
				return nil
			})
		}
		_ = g.Wait()
		result.Results = append(result.Results, outcomes...)

		if end < len(safe) {
			if err := d.sleep(ctx, d.batchDelay); err != nil {
				return nil, err
			}
		}
	}

	for _, r := range result.Results {
		if r.Success {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	slog.InfoContext(ctx, "bulk dispatch complete",
		"sent", result.Sent,
		"failed", result.Failed,
	)

	return result, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, req *types.BulkRequest, rcpt types.EmailRecipient) types.SendResult {
	msg := &types.EmailMessage{
		To:      rcpt.Email,
		Subject: req.Subject,
		HTML:    Personalize(req.HTMLContent, rcpt),
	}

	outcome := types.SendResult{Email: rcpt.Email, Name: rcpt.Name, Success: true}
	if err := d.sender.Send(ctx, msg); err != nil {
		outcome.Success = false
		outcome.Error = err.Error()
		slog.WarnContext(ctx, "send failed", "recipient", rcpt.Email, "error", err)
	}
	return outcome
}

// preview renders the template for the first safe recipient, falling back
// to the first recipient overall when nobody passed validation.
func preview(req *types.BulkRequest, safe []types.EmailRecipient) string {
	sample := req.Recipients[0]
	if len(safe) > 0 {
		sample = safe[0]
	}
	return Personalize(req.HTMLContent, sample)
}
