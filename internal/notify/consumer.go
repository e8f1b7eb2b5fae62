package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/observability"
)

const consumerQueue = "points-notifier"

// Consumer receives email events from NATS and hands them to a Mailer.
type Consumer struct {
	nats    *nats.Conn
	subject string
	mailer  Mailer
	logger  zerolog.Logger
}

// NewConsumer builds a consumer for the channel base's email subject.
func NewConsumer(natsConn *nats.Conn, channelBase string, mailer Mailer, logger zerolog.Logger) *Consumer {
	subject, _ := Subjects(channelBase)
	return &Consumer{
		nats:    natsConn,
		subject: subject,
		mailer:  mailer,
		logger:  logger.With().Str("component", "notify_consumer").Logger(),
	}
}

// Start subscribes with a queue group so replicas share the load, and drains on ctx cancellation.
func (c *Consumer) Start(ctx context.Context) error {
	if c.nats == nil || c.subject == "" {
		return errors.New("nats connection and subject are required")
	}

	sub, err := c.nats.QueueSubscribe(c.subject, consumerQueue, func(msg *nats.Msg) {
		if err := c.Handle(ctx, msg.Data); err != nil {
			c.logger.Warn().Err(err).Msg("failed to handle email event")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain email subscription")
		}
	}()

	c.logger.Info().Str("subject", c.subject).Msg("listening for email events")
	return nil
}

// Handle decodes a single event payload and delivers its email.
func (c *Consumer) Handle(ctx context.Context, payload []byte) error {
	event, err := DecodeEvent(payload)
	if err != nil {
		observability.Notifications().WithLabelValues("delivery_failed").Inc()
		return fmt.Errorf("decode event: %w", err)
	}
	if !event.Email.Valid() {
		observability.Notifications().WithLabelValues("delivery_failed").Inc()
		return fmt.Errorf("event %s carries an invalid email", event.ID)
	}

	if err := c.mailer.Send(ctx, event.Email); err != nil {
		observability.Notifications().WithLabelValues("delivery_failed").Inc()
		return fmt.Errorf("send event %s: %w", event.ID, err)
	}

	observability.Notifications().WithLabelValues("delivered").Inc()
	c.logger.Debug().Str("event_id", event.ID).Str("kind", event.Kind).Msg("email event delivered")
	return nil
}
