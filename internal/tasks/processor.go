package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gittogether/api/internal/email"
	"gittogether/api/internal/metrics"
	"gittogether/api/internal/models"
	"gittogether/api/internal/queue"
)

// RecipientSource lists who has interested requests waiting in a window.
type RecipientSource interface {
	ListPendingRecipients(ctx context.Context, from, to time.Time) ([]models.Recipient, error)
}

type Mailer interface {
	SendPendingRequestEmail(ctx context.Context, toEmail, firstName string) (string, error)
	SendContactEmail(ctx context.Context, msg email.ContactMessage) (string, error)
}

// Processor executes notification tasks. Individual send failures are logged
// and counted; they never fail the task.
type Processor struct {
	recipients RecipientSource
	mailer     Mailer
	logger     zerolog.Logger
}

func NewProcessor(recipients RecipientSource, mailer Mailer, logger zerolog.Logger) *Processor {
	return &Processor{
		recipients: recipients,
		mailer:     mailer,
		logger:     logger,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskPendingReminder:
		var payload queue.PendingReminder
		if err := task.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", task.Type, err)
		}
		return p.handlePendingReminder(ctx, payload)
	case queue.TaskContactUs:
		var payload queue.ContactUs
		if err := task.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", task.Type, err)
		}
		p.handleContactUs(ctx, payload)
		return nil
	default:
		p.logger.Warn().Str("type", task.Type).Str("task_id", task.ID).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handlePendingReminder(ctx context.Context, payload queue.PendingReminder) error {
	recipients, err := p.recipients.ListPendingRecipients(ctx, payload.From, payload.To)
	if err != nil {
		return fmt.Errorf("list pending recipients: %w", err)
	}

	sent := 0
	for _, r := range recipients {
		id, err := p.mailer.SendPendingRequestEmail(ctx, r.Email, r.FirstName)
		if err != nil {
			metrics.Notifications.WithLabelValues(queue.TaskPendingReminder, metrics.ResultError).Inc()
			p.logger.Error().Err(err).Str("user_id", r.UserID).Msg("pending reminder email failed")
			continue
		}
		sent++
		metrics.Notifications.WithLabelValues(queue.TaskPendingReminder, metrics.ResultOK).Inc()
		p.logger.Debug().Str("user_id", r.UserID).Str("message_id", id).Msg("pending reminder sent")
	}

	p.logger.Info().
		Time("from", payload.From).
		Time("to", payload.To).
		Int("recipients", len(recipients)).
		Int("sent", sent).
		Msg("pending reminders processed")
	return nil
}

func (p *Processor) handleContactUs(ctx context.Context, payload queue.ContactUs) {
	_, err := p.mailer.SendContactEmail(ctx, email.ContactMessage{
		FromName:  payload.FromName,
		FromEmail: payload.FromEmail,
		Subject:   payload.Subject,
		Body:      payload.Message,
	})
	if err != nil {
		metrics.Notifications.WithLabelValues(queue.TaskContactUs, metrics.ResultError).Inc()
		p.logger.Error().Err(err).Str("user_id", payload.UserID).Msg("contact relay failed")
		return
	}
	metrics.Notifications.WithLabelValues(queue.TaskContactUs, metrics.ResultOK).Inc()
	p.logger.Info().Str("user_id", payload.UserID).Msg("contact message relayed")
}
