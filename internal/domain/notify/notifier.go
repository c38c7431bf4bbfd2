package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Notification templates used by the engine.
const (
	TemplateDeletionScheduled = "deletion_scheduled"
	TemplateDeletionCancelled = "deletion_cancelled"
	TemplateDeletionConfirmed = "deletion_confirmed"
	TemplateContactAnonymized = "contact_anonymized"
	TemplateRetentionNotice   = "retention_notice"
)

// Dispatcher delivers a templated notification. Callers treat delivery as
// best-effort: a returned error is recorded, never propagated as a fatal
// failure of the surrounding operation.
type Dispatcher interface {
	Send(ctx context.Context, template, recipient string, payload map[string]any) error
}

// Mailer is the outbound email capability. The platform provides an SMTP
// implementation and a noop for installs without email.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Outcome is one recipient's delivery result from a fan-out.
type Outcome struct {
	Recipient string
	Err       error
}

// SettleAll fans send out over recipients with at most workers in flight
// and collects every outcome. Individual failures never abort the batch.
func SettleAll(ctx context.Context, workers int, recipients []string, send func(ctx context.Context, recipient string) error) []Outcome {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]Outcome, len(recipients))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, recipient := range recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			outcomes[i] = Outcome{Recipient: recipient, Err: send(ctx, recipient)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Failed counts outcomes that carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

type Recorder interface {
	Insert(ctx context.Context, userID, recipient, template, subject, body string) error
	DeleteByTemplate(ctx context.Context, recipient, template string) error
}

// Service records a notification row and mails the recipient. Both halves
// are best-effort; failures are logged and returned for accounting only.
type Service struct {
	store  Recorder
	mailer Mailer
	from   string
}

func NewService(store Recorder, mailer Mailer, from string) *Service {
	return &Service{store: store, mailer: mailer, from: from}
}

func (s *Service) Send(ctx context.Context, template, recipient string, payload map[string]any) error {
	subject, body := render(template, payload)
	userID, _ := payload["userId"].(string)

	var firstErr error
	if s.store != nil {
		if err := s.store.Insert(ctx, userID, recipient, template, subject, body); err != nil {
			slog.Warn("notification record failed", "template", template, "err", err)
			firstErr = err
		}
	}
	if s.mailer != nil {
		if err := s.mailer.Send(ctx, s.from, recipient, subject, body); err != nil {
			slog.Warn("notification mail failed", "template", template, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Withdraw removes previously delivered notices of one template for a
// recipient, used when a scheduled deletion is cancelled.
func (s *Service) Withdraw(ctx context.Context, recipient, template string) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteByTemplate(ctx, recipient, template); err != nil {
		slog.Warn("notification withdraw failed", "template", template, "err", err)
	}
}

func render(template string, payload map[string]any) (subject, body string) {
	name, _ := payload["name"].(string)
	if name == "" {
		name = "there"
	}
	switch template {
	case TemplateDeletionScheduled:
		date := payload["scheduledDeletionDate"]
		return "Account deletion scheduled",
			fmt.Sprintf("Hello %s,\n\nA deletion of this account and its data has been scheduled for %v. If this was not intended it can be cancelled before that date.", name, date)
	case TemplateDeletionCancelled:
		return "Account deletion cancelled",
			fmt.Sprintf("Hello %s,\n\nThe previously scheduled account deletion has been cancelled. No data was removed.", name)
	case TemplateDeletionConfirmed:
		return "Account deletion completed",
			fmt.Sprintf("Hello %s,\n\nThe requested account deletion has completed. Identifying data has been removed or anonymized.", name)
	case TemplateContactAnonymized:
		return "A contact of yours was removed",
			fmt.Sprintf("Hello %s,\n\nA person in your contacts exercised their right to erasure. Their identifying details in your records were replaced with placeholders.", name)
	case TemplateRetentionNotice:
		label := payload["label"]
		return "Data scheduled for cleanup",
			fmt.Sprintf("Hello %s,\n\nData of yours (%v) has passed its retention window and is scheduled for cleanup.", name, label)
	default:
		return "Notice", fmt.Sprintf("Hello %s,\n\nYou have a new privacy notice.", name)
	}
}
